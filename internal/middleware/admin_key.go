package middleware

import (
	"crypto/subtle"

	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

const AdminKeyHeader = "X-Admin-Key"

// RequireAdminKey guards admin routes with a shared API key. An empty key locks the routes.
func RequireAdminKey(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		given := c.Get(AdminKeyHeader)
		if key == "" || given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			log.Warn().Str("trace_id", GetTraceID(c)).Str("path", c.Path()).Msg("admin key rejected")
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}
