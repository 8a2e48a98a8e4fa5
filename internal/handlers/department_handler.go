package handlers

import (
	"github.com/civicfix/backend/internal/services"
	"github.com/civicfix/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DepartmentHandler struct {
	departmentService services.DepartmentService
}

func NewDepartmentHandler(departmentService services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departmentService: departmentService}
}

func (h *DepartmentHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.departmentService.ListDepartments(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Departments retrieved", departments)
}

type assignHeadRequest struct {
	HeadID uuid.UUID `json:"head_id" validate:"required"`
}

func (h *DepartmentHandler) AssignHead(c *fiber.Ctx) error {
	name := c.Params("department")

	var req assignHeadRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.HeadID == uuid.Nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "head_id is required")
	}

	if err := h.departmentService.AssignHead(c.Context(), name, req.HeadID); err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Department head assigned", nil)
}
