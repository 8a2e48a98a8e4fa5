package middleware

import (
	"context"
	"strings"

	"github.com/civicfix/backend/internal/database"
	"github.com/civicfix/backend/internal/models"
	"github.com/civicfix/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AuthMiddleware struct {
	jwtManager   *utils.JWTManager
	sessionStore *database.SessionStore
}

func NewAuthMiddleware(jwtManager *utils.JWTManager, sessionStore *database.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
	}
}

func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		authHeader := c.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		isBlacklisted, err := m.sessionStore.IsTokenBlacklisted(context.Background(), token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to validate token")
		}
		if isBlacklisted {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Token has been revoked")
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("phone", claims.Phone)
		c.Locals("role", claims.Role)
		c.Locals("department", claims.Department)
		c.Locals("token", token)

		return c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole := c.Locals("role").(models.Role)

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permissions")
	}
}

// RequireDepartment restricts staff to their own department. The route
// must carry the target department in the :department param. Regular
// admins pass only for their department; a General-department admin is
// the city-wide operator and passes for any.
func (m *AuthMiddleware) RequireDepartment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Params("department")
		userDept := c.Locals("department").(string)

		if userDept == target || userDept == models.DepartmentGeneral {
			return c.Next()
		}

		return utils.ErrorResponse(c, fiber.StatusForbidden, "Access limited to your own department")
	}
}
