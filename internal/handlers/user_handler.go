package handlers

import (
	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/internal/services"
	"github.com/civicfix/backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService services.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService services.UserService, validate *validator.Validate) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validate,
	}
}

func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req models.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.userService.Register(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, "Registration successful", resp)
}

func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req models.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.userService.Login(c.Context(), &req)
	if err != nil {
		// Credential failures surface as 401, not 400.
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid phone or password")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Login successful", resp)
}

func (h *UserHandler) RefreshToken(c *fiber.Ctx) error {
	var req models.RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.userService.RefreshToken(c.Context(), req.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Token refreshed", resp)
}

func (h *UserHandler) Logout(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)
	token := c.Locals("token").(string)

	if err := h.userService.Logout(c.Context(), userID, token); err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Logged out successfully", nil)
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uuid.UUID)

	profile, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.SuccessResponse(c, fiber.StatusOK, "Profile retrieved", profile)
}
