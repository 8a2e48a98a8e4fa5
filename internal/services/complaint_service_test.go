package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/services"
	"github.com/civicfix/backend/internal/vision"
	"github.com/civicfix/backend/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type complaintServiceFixture struct {
	complaintRepo  *mockComplaintRepo
	userRepo       *mockUserRepo
	departmentRepo *mockDepartmentRepo
	storage        *mockStorage
	validator      *mockImageValidator
	service        services.ComplaintService
}

func newComplaintServiceFixture() *complaintServiceFixture {
	f := &complaintServiceFixture{
		complaintRepo:  &mockComplaintRepo{},
		userRepo:       &mockUserRepo{},
		departmentRepo: &mockDepartmentRepo{},
		storage:        &mockStorage{},
		validator:      &mockImageValidator{},
	}
	f.service = services.NewComplaintService(f.complaintRepo, f.userRepo, f.departmentRepo, f.storage, f.validator)
	return f
}

func submitRequest() *models.ComplaintSubmitRequest {
	return &models.ComplaintSubmitRequest{
		Type:        models.TypeBrokenRoad,
		Description: "Deep pothole on the main road",
		Latitude:    24.7136,
		Longitude:   46.6753,
		Address:     "King Fahd Road",
	}
}

func TestSubmitComplaintWithoutImage(t *testing.T) {
	f := newComplaintServiceFixture()
	reporter := &models.User{ID: uuid.New(), Phone: "0501234567", Role: models.RoleUser}

	f.userRepo.On("FindByPhone", mock.Anything, "0501234567").Return(reporter, nil)
	f.complaintRepo.On("GenerateComplaintNumber", mock.Anything).Return("CMP-2026-000042", nil)
	f.complaintRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Complaint")).Return(nil)

	resp, err := f.service.SubmitComplaint(context.Background(), submitRequest(), "0501234567", nil, "")

	require.NoError(t, err)
	assert.Equal(t, "CMP-2026-000042", resp.ComplaintNumber)
	assert.Equal(t, models.DepartmentRoads, resp.Department)
	assert.Empty(t, resp.ImageURL)

	created := f.complaintRepo.Calls[1].Arguments.Get(1).(*models.Complaint)
	assert.Equal(t, models.StatusSubmitted, created.Status)
	assert.Equal(t, reporter.ID, created.ReporterID)
	assert.False(t, created.Escalated)
	assert.False(t, created.TransferredToHead)

	f.validator.AssertNotCalled(t, "Validate")
	f.storage.AssertNotCalled(t, "UploadImage")
}

func TestSubmitComplaintWithAcceptedImage(t *testing.T) {
	f := newComplaintServiceFixture()
	reporter := &models.User{ID: uuid.New(), Phone: "0501234567"}
	image := []byte{0xFF, 0xD8, 0xFF}

	f.userRepo.On("FindByPhone", mock.Anything, "0501234567").Return(reporter, nil)
	f.validator.On("Validate", mock.Anything, image, "image/jpeg", models.TypeBrokenRoad, mock.Anything).
		Return(vision.Result{IsValid: true, Feedback: "Pothole visible."})
	f.storage.On("UploadImage", mock.Anything, image, "image/jpeg").Return("complaints/abc123", nil)
	f.storage.On("GetFileURL", mock.Anything, "complaints/abc123").Return("https://cdn.example.com/complaints/abc123", nil)
	f.complaintRepo.On("GenerateComplaintNumber", mock.Anything).Return("CMP-2026-000043", nil)
	f.complaintRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Complaint")).Return(nil)

	resp, err := f.service.SubmitComplaint(context.Background(), submitRequest(), "0501234567", image, "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/complaints/abc123", resp.ImageURL)
	f.storage.AssertNotCalled(t, "DeleteFile")
}

func TestSubmitComplaintRejectedImagePersistsNothing(t *testing.T) {
	f := newComplaintServiceFixture()
	reporter := &models.User{ID: uuid.New(), Phone: "0501234567"}
	image := []byte{0x00}

	f.userRepo.On("FindByPhone", mock.Anything, "0501234567").Return(reporter, nil)
	f.validator.On("Validate", mock.Anything, image, "image/png", models.TypeBrokenRoad, mock.Anything).
		Return(vision.Result{IsValid: false, Feedback: "The photo shows a parked car.", SuggestedAction: "Photograph the pothole."})

	resp, err := f.service.SubmitComplaint(context.Background(), submitRequest(), "0501234567", image, "image/png")

	assert.Nil(t, resp)
	rejected, ok := apperrors.IsImageRejected(err)
	require.True(t, ok)
	assert.Equal(t, "The photo shows a parked car.", rejected.Feedback)
	assert.Equal(t, "Photograph the pothole.", rejected.SuggestedAction)

	f.storage.AssertNotCalled(t, "UploadImage")
	f.complaintRepo.AssertNotCalled(t, "Create")
}

func TestSubmitComplaintMissingFields(t *testing.T) {
	f := newComplaintServiceFixture()

	for _, mutate := range []func(*models.ComplaintSubmitRequest){
		func(r *models.ComplaintSubmitRequest) { r.Type = "  " },
		func(r *models.ComplaintSubmitRequest) { r.Description = "" },
		func(r *models.ComplaintSubmitRequest) { r.Address = "" },
		func(r *models.ComplaintSubmitRequest) { r.Latitude, r.Longitude = 0, 0 },
	} {
		req := submitRequest()
		mutate(req)

		resp, err := f.service.SubmitComplaint(context.Background(), req, "0501234567", nil, "")

		assert.Nil(t, resp)
		assert.True(t, apperrors.IsValidation(err))
	}

	f.userRepo.AssertNotCalled(t, "FindByPhone")
}

func TestSubmitComplaintUnknownReporter(t *testing.T) {
	f := newComplaintServiceFixture()
	f.userRepo.On("FindByPhone", mock.Anything, "0599999999").Return(nil, gorm.ErrRecordNotFound)

	resp, err := f.service.SubmitComplaint(context.Background(), submitRequest(), "0599999999", nil, "")

	assert.Nil(t, resp)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSubmitComplaintPersistFailureCleansUpImage(t *testing.T) {
	f := newComplaintServiceFixture()
	reporter := &models.User{ID: uuid.New(), Phone: "0501234567"}
	image := []byte{0xFF}

	f.userRepo.On("FindByPhone", mock.Anything, "0501234567").Return(reporter, nil)
	f.validator.On("Validate", mock.Anything, image, "image/jpeg", models.TypeBrokenRoad, mock.Anything).
		Return(vision.Result{IsValid: true})
	f.storage.On("UploadImage", mock.Anything, image, "image/jpeg").Return("complaints/orphan", nil)
	f.storage.On("GetFileURL", mock.Anything, "complaints/orphan").Return("https://cdn/orphan", nil)
	f.complaintRepo.On("GenerateComplaintNumber", mock.Anything).Return("CMP-2026-000044", nil)
	f.complaintRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Complaint")).Return(errors.New("connection reset"))
	f.storage.On("DeleteFile", mock.Anything, "complaints/orphan").Return(nil)

	resp, err := f.service.SubmitComplaint(context.Background(), submitRequest(), "0501234567", image, "image/jpeg")

	assert.Nil(t, resp)
	var persistErr *apperrors.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	f.storage.AssertCalled(t, "DeleteFile", mock.Anything, "complaints/orphan")
}

func TestSubmitComplaintRoutesTypeToDepartment(t *testing.T) {
	cases := map[string]string{
		models.TypeBrokenRoad:        models.DepartmentRoads,
		models.TypeGarbageCollection: models.DepartmentSanitation,
		models.TypeStreetLight:       models.DepartmentElectricity,
		models.TypeWaterSupply:       models.DepartmentWater,
		models.TypeOther:             models.DepartmentGeneral,
		"Something Unheard Of":       models.DepartmentGeneral,
	}

	for complaintType, wantDepartment := range cases {
		f := newComplaintServiceFixture()
		reporter := &models.User{ID: uuid.New(), Phone: "0501234567"}
		f.userRepo.On("FindByPhone", mock.Anything, "0501234567").Return(reporter, nil)
		f.complaintRepo.On("GenerateComplaintNumber", mock.Anything).Return("CMP-2026-000001", nil)
		f.complaintRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Complaint")).Return(nil)

		req := submitRequest()
		req.Type = complaintType

		resp, err := f.service.SubmitComplaint(context.Background(), req, "0501234567", nil, "")

		require.NoError(t, err)
		assert.Equal(t, wantDepartment, resp.Department, "type %q", complaintType)
	}
}

func TestUpdateStatusAppendsOneHistoryEntry(t *testing.T) {
	f := newComplaintServiceFixture()
	id := uuid.New()
	complaint := &models.Complaint{ID: id, Status: models.StatusSubmitted, Department: models.DepartmentRoads}

	f.complaintRepo.On("FindByID", mock.Anything, id).Return(complaint, nil)
	f.complaintRepo.On("UpdateFields", mock.Anything, id, map[string]interface{}{"status": models.StatusInProgress}).Return(nil)
	f.complaintRepo.On("AppendHistory", mock.Anything, mock.AnythingOfType("*models.ComplaintHistory")).Return(nil)

	_, err := f.service.UpdateStatus(context.Background(), id, models.StatusInProgress, "Crew dispatched")

	require.NoError(t, err)
	f.complaintRepo.AssertNumberOfCalls(t, "AppendHistory", 1)

	var entry *models.ComplaintHistory
	for _, call := range f.complaintRepo.Calls {
		if call.Method == "AppendHistory" {
			entry = call.Arguments.Get(1).(*models.ComplaintHistory)
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, models.StatusInProgress, entry.Status)
	assert.Equal(t, "Crew dispatched", entry.Comment)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newComplaintServiceFixture()

	_, err := f.service.UpdateStatus(context.Background(), uuid.New(), "Closed", "")

	assert.True(t, apperrors.IsValidation(err))
	f.complaintRepo.AssertNotCalled(t, "UpdateFields")
	f.complaintRepo.AssertNotCalled(t, "AppendHistory")
}

func TestUpdateStatusAllowsReopeningResolved(t *testing.T) {
	f := newComplaintServiceFixture()
	id := uuid.New()
	complaint := &models.Complaint{ID: id, Status: models.StatusResolved}

	f.complaintRepo.On("FindByID", mock.Anything, id).Return(complaint, nil)
	f.complaintRepo.On("UpdateFields", mock.Anything, id, map[string]interface{}{"status": models.StatusInProgress}).Return(nil)
	f.complaintRepo.On("AppendHistory", mock.Anything, mock.AnythingOfType("*models.ComplaintHistory")).Return(nil)

	_, err := f.service.UpdateStatus(context.Background(), id, models.StatusInProgress, "Issue resurfaced")

	assert.NoError(t, err)
}

func TestUpdateStatusUnknownComplaint(t *testing.T) {
	f := newComplaintServiceFixture()
	id := uuid.New()
	f.complaintRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.service.UpdateStatus(context.Background(), id, models.StatusResolved, "")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestTransferToHeadOnlyOnce(t *testing.T) {
	f := newComplaintServiceFixture()
	id := uuid.New()
	complaint := &models.Complaint{ID: id, Status: models.StatusSubmitted}

	f.complaintRepo.On("FindByID", mock.Anything, id).Return(complaint, nil)
	f.complaintRepo.On("UpdateFields", mock.Anything, id, map[string]interface{}{"transferred_to_head": true}).
		Run(func(args mock.Arguments) { complaint.TransferredToHead = true }).
		Return(nil)

	_, err := f.service.TransferToHead(context.Background(), id)
	require.NoError(t, err)

	_, err = f.service.TransferToHead(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyTransferred)
	f.complaintRepo.AssertNumberOfCalls(t, "UpdateFields", 1)
}

func TestGetUserComplaintsUnknownReporter(t *testing.T) {
	f := newComplaintServiceFixture()
	f.userRepo.On("FindByPhone", mock.Anything, "0590000000").Return(nil, gorm.ErrRecordNotFound)

	_, err := f.service.GetUserComplaints(context.Background(), "0590000000")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetDepartmentComplaintsUnknownDepartment(t *testing.T) {
	f := newComplaintServiceFixture()
	f.departmentRepo.On("FindByName", mock.Anything, "Parks").Return(nil, gorm.ErrRecordNotFound)

	_, err := f.service.GetDepartmentComplaints(context.Background(), "Parks")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetStatisticsEmptyDepartment(t *testing.T) {
	f := newComplaintServiceFixture()
	f.complaintRepo.On("GetStats", mock.Anything, models.DepartmentWater).Return(&models.ComplaintStatsResponse{
		ByStatus: map[models.ComplaintStatus]int64{},
		ByType:   map[string]int64{},
	}, nil)

	stats, err := f.service.GetStatistics(context.Background(), models.DepartmentWater)

	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AvgResolutionDays)
	assert.Empty(t, stats.ByStatus)
}
