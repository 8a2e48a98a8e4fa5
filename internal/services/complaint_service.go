package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/repository"
	"github.com/civicfix/backend/internal/vision"
	"github.com/civicfix/backend/pkg/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObjectStorage is the slice of the storage layer the lifecycle needs
type ObjectStorage interface {
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
	GetFileURL(ctx context.Context, objectName string) (string, error)
	DeleteFile(ctx context.Context, objectName string) error
}

// ImageValidator gates submission on the photo matching the report
type ImageValidator interface {
	Validate(ctx context.Context, image []byte, mimeType, complaintType, description string) vision.Result
}

type ComplaintService interface {
	SubmitComplaint(ctx context.Context, req *models.ComplaintSubmitRequest, reporterPhone string, image []byte, imageMime string) (*models.ComplaintSubmitResponse, error)
	GetUserComplaints(ctx context.Context, reporterPhone string) ([]models.ComplaintResponse, error)
	GetDepartmentComplaints(ctx context.Context, department string) ([]models.ComplaintResponse, error)
	GetComplaintByID(ctx context.Context, id uuid.UUID) (*models.ComplaintResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ComplaintStatus, comment string) (*models.ComplaintResponse, error)
	TransferToHead(ctx context.Context, id uuid.UUID) (*models.ComplaintResponse, error)
	GetStatistics(ctx context.Context, department string) (*models.ComplaintStatsResponse, error)
	ValidateImageOnly(ctx context.Context, image []byte, imageMime, complaintType, description string) vision.Result
}

type complaintService struct {
	complaintRepo  repository.ComplaintRepository
	userRepo       repository.UserRepository
	departmentRepo repository.DepartmentRepository
	storage        ObjectStorage
	validator      ImageValidator
}

func NewComplaintService(
	complaintRepo repository.ComplaintRepository,
	userRepo repository.UserRepository,
	departmentRepo repository.DepartmentRepository,
	storage ObjectStorage,
	validator ImageValidator,
) ComplaintService {
	return &complaintService{
		complaintRepo:  complaintRepo,
		userRepo:       userRepo,
		departmentRepo: departmentRepo,
		storage:        storage,
		validator:      validator,
	}
}

// SubmitComplaint ingests a citizen report. When a photo is attached the
// flow is validate, then upload, then persist; the photo is never written
// to durable storage before the validator accepts it, and a persist
// failure after upload triggers best-effort cleanup of the object.
func (s *complaintService) SubmitComplaint(ctx context.Context, req *models.ComplaintSubmitRequest, reporterPhone string, image []byte, imageMime string) (*models.ComplaintSubmitResponse, error) {
	if strings.TrimSpace(req.Type) == "" {
		return nil, apperrors.NewValidationError("type", "complaint type is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperrors.NewValidationError("description", "description is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, apperrors.NewValidationError("address", "address is required")
	}
	if req.Latitude == 0 && req.Longitude == 0 {
		return nil, apperrors.NewValidationError("location", "latitude and longitude are required")
	}

	reporter, err := s.userRepo.FindByPhone(ctx, reporterPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", reporterPhone)
		}
		return nil, &apperrors.PersistenceError{Op: "lookup reporter", Err: err}
	}

	var imageKey, imageURL string
	if len(image) > 0 {
		verdict := s.validator.Validate(ctx, image, imageMime, req.Type, req.Description)
		if !verdict.IsValid {
			return nil, &apperrors.ImageRejectedError{
				Feedback:        verdict.Feedback,
				SuggestedAction: verdict.SuggestedAction,
			}
		}

		imageKey, err = s.storage.UploadImage(ctx, image, imageMime)
		if err != nil {
			return nil, &apperrors.PersistenceError{Op: "store image", Err: err}
		}

		imageURL, err = s.storage.GetFileURL(ctx, imageKey)
		if err != nil {
			log.Printf("Failed to resolve URL for image %s: %v", imageKey, err)
		}
	}

	number, err := s.complaintRepo.GenerateComplaintNumber(ctx)
	if err != nil {
		s.cleanupImage(ctx, imageKey)
		return nil, &apperrors.PersistenceError{Op: "generate complaint number", Err: err}
	}

	complaint := &models.Complaint{
		ComplaintNumber: number,
		ReporterID:      reporter.ID,
		Type:            req.Type,
		Description:     req.Description,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Address:         req.Address,
		ImageURL:        imageURL,
		ImageKey:        imageKey,
		Department:      models.DepartmentForType(req.Type),
		Status:          models.StatusSubmitted,
	}

	if err := s.complaintRepo.Create(ctx, complaint); err != nil {
		s.cleanupImage(ctx, imageKey)
		return nil, &apperrors.PersistenceError{Op: "create complaint", Err: err}
	}

	return &models.ComplaintSubmitResponse{
		ComplaintID:     complaint.ID,
		ComplaintNumber: complaint.ComplaintNumber,
		Department:      complaint.Department,
		ImageURL:        imageURL,
	}, nil
}

// cleanupImage removes an uploaded object after a failed submission.
// Failure to delete is logged, never surfaced.
func (s *complaintService) cleanupImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.storage.DeleteFile(ctx, key); err != nil {
		log.Printf("Failed to delete orphaned image %s: %v", key, err)
	}
}

func (s *complaintService) GetUserComplaints(ctx context.Context, reporterPhone string) ([]models.ComplaintResponse, error) {
	reporter, err := s.userRepo.FindByPhone(ctx, reporterPhone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user", reporterPhone)
		}
		return nil, &apperrors.PersistenceError{Op: "lookup reporter", Err: err}
	}

	complaints, err := s.complaintRepo.ListByReporter(ctx, reporter.ID)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "list complaints", Err: err}
	}

	return toComplaintResponses(complaints), nil
}

func (s *complaintService) GetDepartmentComplaints(ctx context.Context, department string) ([]models.ComplaintResponse, error) {
	if _, err := s.departmentRepo.FindByName(ctx, department); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("department", department)
		}
		return nil, &apperrors.PersistenceError{Op: "lookup department", Err: err}
	}

	complaints, err := s.complaintRepo.ListByDepartment(ctx, department)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "list complaints", Err: err}
	}

	return toComplaintResponses(complaints), nil
}

func (s *complaintService) GetComplaintByID(ctx context.Context, id uuid.UUID) (*models.ComplaintResponse, error) {
	complaint, err := s.complaintRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("complaint", id.String())
		}
		return nil, &apperrors.PersistenceError{Op: "find complaint", Err: err}
	}

	resp := models.ToComplaintResponse(complaint)
	return &resp, nil
}

// UpdateStatus sets the new status and appends one history entry. Any
// member of the enumeration is accepted regardless of the current status;
// the historical system allowed Resolved complaints to be reopened and
// that behavior is preserved. Authorization is the caller's concern.
func (s *complaintService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ComplaintStatus, comment string) (*models.ComplaintResponse, error) {
	if !models.ValidStatus(status) {
		return nil, apperrors.NewValidationError("status", "status must be one of Submitted, In Progress, Resolved")
	}

	if _, err := s.complaintRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("complaint", id.String())
		}
		return nil, &apperrors.PersistenceError{Op: "find complaint", Err: err}
	}

	// Note: a concurrent escalation sweep touching the same complaint is
	// last-write-wins on these fields. The history table is append-only so
	// neither writer loses its entry.
	if err := s.complaintRepo.UpdateFields(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return nil, &apperrors.PersistenceError{Op: "update status", Err: err}
	}

	entry := &models.ComplaintHistory{
		ComplaintID: id,
		Status:      status,
		Comment:     comment,
	}
	if err := s.complaintRepo.AppendHistory(ctx, entry); err != nil {
		return nil, &apperrors.PersistenceError{Op: "append history", Err: err}
	}

	return s.GetComplaintByID(ctx, id)
}

// TransferToHead routes a complaint to the department head. Calling it
// twice is an error, not a no-op: the second caller is told the transfer
// already happened.
func (s *complaintService) TransferToHead(ctx context.Context, id uuid.UUID) (*models.ComplaintResponse, error) {
	complaint, err := s.complaintRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("complaint", id.String())
		}
		return nil, &apperrors.PersistenceError{Op: "find complaint", Err: err}
	}

	if complaint.TransferredToHead {
		return nil, apperrors.ErrAlreadyTransferred
	}

	if err := s.complaintRepo.UpdateFields(ctx, id, map[string]interface{}{"transferred_to_head": true}); err != nil {
		return nil, &apperrors.PersistenceError{Op: "transfer to head", Err: err}
	}

	return s.GetComplaintByID(ctx, id)
}

func (s *complaintService) GetStatistics(ctx context.Context, department string) (*models.ComplaintStatsResponse, error) {
	stats, err := s.complaintRepo.GetStats(ctx, department)
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "aggregate stats", Err: err}
	}
	return stats, nil
}

func (s *complaintService) ValidateImageOnly(ctx context.Context, image []byte, imageMime, complaintType, description string) vision.Result {
	return s.validator.Validate(ctx, image, imageMime, complaintType, description)
}

func toComplaintResponses(complaints []models.Complaint) []models.ComplaintResponse {
	responses := make([]models.ComplaintResponse, len(complaints))
	for i, c := range complaints {
		responses[i] = models.ToComplaintResponse(&c)
	}
	return responses
}
