package services_test

import (
	"context"
	"time"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/vision"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockComplaintRepo struct {
	mock.Mock
}

func (m *mockComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	args := m.Called(ctx, complaint)
	return args.Error(0)
}

func (m *mockComplaintRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]models.Complaint, error) {
	args := m.Called(ctx, reporterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) ListByDepartment(ctx context.Context, department string) ([]models.Complaint, error) {
	args := m.Called(ctx, department)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) Update(ctx context.Context, complaint *models.Complaint) error {
	args := m.Called(ctx, complaint)
	return args.Error(0)
}

func (m *mockComplaintRepo) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	args := m.Called(ctx, id, updates)
	return args.Error(0)
}

func (m *mockComplaintRepo) GenerateComplaintNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockComplaintRepo) AppendHistory(ctx context.Context, entry *models.ComplaintHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockComplaintRepo) ListHistory(ctx context.Context, complaintID uuid.UUID) ([]models.ComplaintHistory, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ComplaintHistory), args.Error(1)
}

func (m *mockComplaintRepo) ListForEscalation(ctx context.Context, olderThan time.Time) ([]models.Complaint, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) GetStats(ctx context.Context, department string) (*models.ComplaintStatsResponse, error) {
	args := m.Called(ctx, department)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComplaintStatsResponse), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockDepartmentRepo struct {
	mock.Mock
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]models.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Department), args.Error(1)
}

func (m *mockDepartmentRepo) FindByName(ctx context.Context, name string) (*models.Department, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

func (m *mockDepartmentRepo) SetHead(ctx context.Context, name string, headID uuid.UUID) error {
	args := m.Called(ctx, name, headID)
	return args.Error(0)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) UploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) GetFileURL(ctx context.Context, objectName string) (string, error) {
	args := m.Called(ctx, objectName)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) DeleteFile(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

type mockImageValidator struct {
	mock.Mock
}

func (m *mockImageValidator) Validate(ctx context.Context, image []byte, mimeType, complaintType, description string) vision.Result {
	args := m.Called(ctx, image, mimeType, complaintType, description)
	return args.Get(0).(vision.Result)
}
