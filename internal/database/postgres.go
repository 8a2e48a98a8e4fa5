package database

import (
	"fmt"
	"log"

	"github.com/civicfix/backend/internal/config"
	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Println("Database connected successfully")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	log.Println("Running database migrations...")
	err := db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Complaint{},
		&models.ComplaintHistory{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Database migrations completed")
	return nil
}

// Seed creates the fixed departments and a bootstrap admin. Safe to run on
// every start.
func Seed(db *gorm.DB) error {
	log.Println("Seeding database...")

	descriptions := map[string]string{
		models.DepartmentRoads:       "Road maintenance and repair",
		models.DepartmentSanitation:  "Garbage collection and waste management",
		models.DepartmentElectricity: "Street lighting and electrical infrastructure",
		models.DepartmentWater:       "Water supply and drainage",
		models.DepartmentGeneral:     "Unclassified civic issues",
	}

	for _, name := range models.AllDepartments {
		var existing models.Department
		result := db.Where("name = ?", name).First(&existing)
		if result.Error == gorm.ErrRecordNotFound {
			dept := models.Department{
				Name:        name,
				Description: descriptions[name],
			}
			if err := db.Create(&dept).Error; err != nil {
				log.Printf("Failed to create department %s: %v", name, err)
			}
		}
	}

	// Bootstrap admin account
	var adminUser models.User
	result := db.Where("phone = ?", "0000000000").First(&adminUser)
	if result.Error == gorm.ErrRecordNotFound {
		hashedPassword, _ := utils.HashPassword("admin123")
		adminUser = models.User{
			Name:       "System Admin",
			Phone:      "0000000000",
			Email:      "admin@civicfix.local",
			Password:   hashedPassword,
			Role:       models.RoleAdmin,
			Department: models.DepartmentGeneral,
			IsActive:   true,
		}
		if err := db.Create(&adminUser).Error; err != nil {
			log.Printf("Failed to create admin user: %v", err)
		}
	}

	log.Println("Database seeding completed")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
