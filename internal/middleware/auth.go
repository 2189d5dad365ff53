package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foodlink/internal/config"
	"github.com/example/foodlink/internal/metrics"
	"github.com/example/foodlink/internal/models"
	"github.com/example/foodlink/internal/utils"
)

const principalContextKey = "currentPrincipal"

// Principal is the authenticated caller, resolved once per request. Handlers
// work with the typed role instead of re-parsing token claims.
type Principal struct {
	ID   uuid.UUID
	Role models.Role
}

// AuthMiddleware validates the bearer token, re-resolves the account and
// re-applies the status gate on every request. A token issued before an
// account was rejected or suspended stops working immediately.
func AuthMiddleware(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			metrics.AuthFailuresTotal.Inc()
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			metrics.AuthFailuresTotal.Inc()
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		userID, _, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			metrics.AuthFailuresTotal.Inc()
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			metrics.AuthFailuresTotal.Inc()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "account not found")
			}
			return err
		}

		if err := user.AccessGate(); err != nil {
			return fiber.NewError(fiber.StatusForbidden, err.Error())
		}

		c.Locals(principalContextKey, Principal{ID: user.ID, Role: user.Role})
		return c.Next()
	}
}

// RequireRoles guards a route group to the listed roles.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}

		for _, role := range roles {
			if principal.Role == role {
				return c.Next()
			}
		}

		return fiber.NewError(fiber.StatusForbidden, "insufficient role")
	}
}

// CurrentPrincipal extracts the authenticated principal from context.
func CurrentPrincipal(c *fiber.Ctx) (Principal, bool) {
	value := c.Locals(principalContextKey)
	if value == nil {
		return Principal{}, false
	}

	if principal, ok := value.(Principal); ok {
		return principal, true
	}

	return Principal{}, false
}
