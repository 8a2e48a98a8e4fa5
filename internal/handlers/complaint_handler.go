package handlers

import (
	"errors"
	"io"
	"log"

	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/services"
	"github.com/civicfix/backend/pkg/apperrors"
	"github.com/civicfix/backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ComplaintHandler struct {
	complaintService services.ComplaintService
	validate         *validator.Validate
}

func NewComplaintHandler(complaintService services.ComplaintService, validate *validator.Validate) *ComplaintHandler {
	return &ComplaintHandler{
		complaintService: complaintService,
		validate:         validate,
	}
}

// respondError translates domain errors into HTTP status codes so that
// handlers never match on error strings.
func respondError(c *fiber.Ctx, err error) error {
	if rejected, ok := apperrors.IsImageRejected(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(utils.Response{
			Success: false,
			Error:   rejected.Feedback,
			Data: fiber.Map{
				"is_valid":         false,
				"feedback":         rejected.Feedback,
				"suggested_action": rejected.SuggestedAction,
			},
		})
	}
	if apperrors.IsValidation(err) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}
	if apperrors.IsNotFound(err) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, err.Error())
	}
	if errors.Is(err, apperrors.ErrAlreadyTransferred) {
		return utils.ErrorResponse(c, fiber.StatusConflict, err.Error())
	}

	log.Printf("Internal error: %v", err)
	return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Internal server error")
}

// readImage pulls the optional photo out of the multipart form. A missing
// file is not an error.
func readImage(c *fiber.Ctx) ([]byte, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return data, mimeType, nil
}

func (h *ComplaintHandler) SubmitComplaint(c *fiber.Ctx) error {
	var req models.ComplaintSubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	image, mimeType, err := readImage(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded image")
	}

	phone := c.Locals("phone").(string)

	resp, err := h.complaintService.SubmitComplaint(c.Context(), &req, phone, image, mimeType)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Complaint submitted successfully", resp)
}

// ValidateImage runs the photo check without creating a complaint, so the
// client can tell the citizen to retake the picture before submitting.
func (h *ComplaintHandler) ValidateImage(c *fiber.Ctx) error {
	image, mimeType, err := readImage(c)
	if err != nil || len(image) == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "An image file is required")
	}

	var req models.ImageCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	result := h.complaintService.ValidateImageOnly(c.Context(), image, mimeType, req.Type, req.Description)
	return utils.SuccessResponse(c, fiber.StatusOK, "Image reviewed", result)
}

func (h *ComplaintHandler) GetMyComplaints(c *fiber.Ctx) error {
	phone := c.Locals("phone").(string)

	complaints, err := h.complaintService.GetUserComplaints(c.Context(), phone)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Complaints retrieved", complaints)
}

func (h *ComplaintHandler) GetUserComplaints(c *fiber.Ctx) error {
	phone := c.Params("phone")

	complaints, err := h.complaintService.GetUserComplaints(c.Context(), phone)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Complaints retrieved", complaints)
}

func (h *ComplaintHandler) GetComplaintByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID")
	}

	complaint, err := h.complaintService.GetComplaintByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	// Citizens may only look at their own reports; staff see everything.
	role := c.Locals("role").(models.Role)
	if role == models.RoleUser && (complaint.Reporter == nil || complaint.Reporter.Phone != c.Locals("phone").(string)) {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "You can only view your own complaints")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint retrieved", complaint)
}

func (h *ComplaintHandler) GetDepartmentComplaints(c *fiber.Ctx) error {
	department := c.Params("department")

	complaints, err := h.complaintService.GetDepartmentComplaints(c.Context(), department)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Complaints retrieved", complaints)
}

func (h *ComplaintHandler) GetDepartmentStats(c *fiber.Ctx) error {
	department := c.Params("department")

	stats, err := h.complaintService.GetStatistics(c.Context(), department)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Statistics retrieved", stats)
}

func (h *ComplaintHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID")
	}

	var req models.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	allowed, err := h.complaintInCallerDepartment(c, id)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Complaint belongs to another department")
	}

	complaint, err := h.complaintService.UpdateStatus(c.Context(), id, models.ComplaintStatus(req.Status), req.Comment)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Status updated", complaint)
}

func (h *ComplaintHandler) TransferToHead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid complaint ID")
	}

	allowed, err := h.complaintInCallerDepartment(c, id)
	if err != nil {
		return respondError(c, err)
	}
	if !allowed {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Complaint belongs to another department")
	}

	complaint, err := h.complaintService.TransferToHead(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Complaint transferred to department head", complaint)
}

// complaintInCallerDepartment reports whether the staff caller may act
// on the complaint. A General-department admin operates city-wide.
func (h *ComplaintHandler) complaintInCallerDepartment(c *fiber.Ctx, id uuid.UUID) (bool, error) {
	userDept := c.Locals("department").(string)
	if userDept == models.DepartmentGeneral {
		return true, nil
	}

	complaint, err := h.complaintService.GetComplaintByID(c.Context(), id)
	if err != nil {
		return false, err
	}
	return complaint.Department == userDept, nil
}
