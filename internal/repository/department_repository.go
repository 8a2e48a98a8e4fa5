package repository

import (
	"context"

	"github.com/civicfix/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByName(ctx context.Context, name string) (*models.Department, error)
	SetHead(ctx context.Context, name string, headID uuid.UUID) error
}

type departmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) DepartmentRepository {
	return &departmentRepository{db: db}
}

func (r *departmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	err := r.db.WithContext(ctx).
		Preload("Head").
		Order("name ASC").
		Find(&departments).Error
	return departments, err
}

func (r *departmentRepository) FindByName(ctx context.Context, name string) (*models.Department, error) {
	var department models.Department
	err := r.db.WithContext(ctx).
		Preload("Head").
		Where("name = ?", name).
		First(&department).Error
	if err != nil {
		return nil, err
	}
	return &department, nil
}

func (r *departmentRepository) SetHead(ctx context.Context, name string, headID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Department{}).
		Where("name = ?", name).
		Update("head_id", headID).Error
}
