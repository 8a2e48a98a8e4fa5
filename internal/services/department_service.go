package services

import (
	"context"
	"errors"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/repository"
	"github.com/civicfix/backend/pkg/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DepartmentService interface {
	ListDepartments(ctx context.Context) ([]models.DepartmentResponse, error)
	AssignHead(ctx context.Context, name string, headID uuid.UUID) error
}

type departmentService struct {
	departmentRepo repository.DepartmentRepository
	userRepo       repository.UserRepository
}

func NewDepartmentService(departmentRepo repository.DepartmentRepository, userRepo repository.UserRepository) DepartmentService {
	return &departmentService{
		departmentRepo: departmentRepo,
		userRepo:       userRepo,
	}
}

func (s *departmentService) ListDepartments(ctx context.Context) ([]models.DepartmentResponse, error) {
	departments, err := s.departmentRepo.List(ctx)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "list departments", Err: err}
	}

	responses := make([]models.DepartmentResponse, len(departments))
	for i, d := range departments {
		responses[i] = models.ToDepartmentResponse(&d)
	}
	return responses, nil
}

// AssignHead makes a user the head of a department and promotes them to
// the head role scoped to that department.
func (s *departmentService) AssignHead(ctx context.Context, name string, headID uuid.UUID) error {
	if _, err := s.departmentRepo.FindByName(ctx, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("department", name)
		}
		return &apperrors.PersistenceError{Op: "lookup department", Err: err}
	}

	user, err := s.userRepo.FindByID(ctx, headID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewNotFoundError("user", headID.String())
		}
		return &apperrors.PersistenceError{Op: "lookup user", Err: err}
	}

	if err := s.departmentRepo.SetHead(ctx, name, headID); err != nil {
		return &apperrors.PersistenceError{Op: "assign department head", Err: err}
	}

	user.Role = models.RoleHead
	user.Department = name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return &apperrors.PersistenceError{Op: "promote user", Err: err}
	}
	return nil
}
