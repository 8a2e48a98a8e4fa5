package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicfix/backend/internal/config"
	"github.com/civicfix/backend/internal/database"
	"github.com/civicfix/backend/internal/handlers"
	"github.com/civicfix/backend/internal/middleware"
	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/repository"
	"github.com/civicfix/backend/internal/services"
	"github.com/civicfix/backend/internal/storage"
	"github.com/civicfix/backend/internal/vision"
	"github.com/civicfix/backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed departments and the bootstrap admin
	if err := database.Seed(db); err != nil {
		log.Printf("Warning: Failed to seed database: %v", err)
	}

	redisClient, err := database.ConnectRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer database.CloseRedis(redisClient)

	minioStorage, err := storage.NewMinIOStorage(&cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpireHour)
	sessionStore := database.NewSessionStore(redisClient)

	visionClient := vision.NewClient(&cfg.Vision)
	imageValidator := vision.NewValidator(visionClient)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, jwtManager, sessionStore)
	departmentService := services.NewDepartmentService(departmentRepo, userRepo)
	complaintService := services.NewComplaintService(complaintRepo, userRepo, departmentRepo, minioStorage, imageValidator)

	// Initialize and start the escalation monitor
	escalationMonitor := services.NewEscalationMonitor(
		complaintRepo,
		cfg.Escalation.ThresholdDays,
		time.Duration(cfg.Escalation.IntervalHours)*time.Hour,
	)
	escalationMonitor.Start()
	defer escalationMonitor.Stop()

	// Initialize validator
	validate := validator.New()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	userHandler := handlers.NewUserHandler(userService, validate)
	departmentHandler := handlers.NewDepartmentHandler(departmentService)
	complaintHandler := handlers.NewComplaintHandler(complaintService, validate)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, sessionStore)

	app := fiber.New(fiber.Config{
		AppName:      "CivicFix Backend",
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000,http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Health routes
	v1.Get("/health", healthHandler.Health)
	v1.Get("/ready", healthHandler.Ready)

	// Auth routes
	auth := v1.Group("/auth")
	auth.Post("/register", userHandler.Register)
	auth.Post("/login", userHandler.Login)
	auth.Post("/refresh", userHandler.RefreshToken)
	auth.Post("/logout", authMiddleware.Authenticate(), userHandler.Logout)

	// User routes
	users := v1.Group("/users", authMiddleware.Authenticate())
	users.Get("/me", userHandler.GetProfile)

	// Department routes
	departments := v1.Group("/departments", authMiddleware.Authenticate())
	departments.Get("/", departmentHandler.ListDepartments)
	departments.Put("/:department/head", authMiddleware.RequireRole(models.RoleAdmin), departmentHandler.AssignHead)
	departments.Get("/:department/complaints",
		authMiddleware.RequireRole(models.RoleAdmin, models.RoleHead),
		authMiddleware.RequireDepartment(),
		complaintHandler.GetDepartmentComplaints)
	departments.Get("/:department/stats",
		authMiddleware.RequireRole(models.RoleAdmin, models.RoleHead),
		authMiddleware.RequireDepartment(),
		complaintHandler.GetDepartmentStats)

	// Complaint routes
	complaints := v1.Group("/complaints", authMiddleware.Authenticate())
	complaints.Post("/", complaintHandler.SubmitComplaint)
	complaints.Post("/validate-image", complaintHandler.ValidateImage)
	complaints.Get("/my", complaintHandler.GetMyComplaints)
	complaints.Get("/user/:phone", authMiddleware.RequireRole(models.RoleAdmin), complaintHandler.GetUserComplaints)
	complaints.Get("/:id", complaintHandler.GetComplaintByID)
	complaints.Put("/:id/status", authMiddleware.RequireRole(models.RoleAdmin, models.RoleHead), complaintHandler.UpdateStatus)
	complaints.Post("/:id/transfer", authMiddleware.RequireRole(models.RoleAdmin), complaintHandler.TransferToHead)

	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
