package handlers

import (
	"github.com/civicfix/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, fiber.StatusOK, "OK", fiber.Map{"status": "healthy"})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Database not reachable")
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "OK", fiber.Map{"status": "ready"})
}
