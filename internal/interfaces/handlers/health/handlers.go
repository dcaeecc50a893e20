package health

import (
	"crypto/subtle"
	"time"

	healthsvc "protegeya-backend/internal/application/health"
	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ServiceName identifies this API in health payloads.
const ServiceName = "protegeya-api"

const errorLogLimit = 50

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	HealthAdminKey string
	Version        string
}

// Root is the banner served on GET /.
func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": ServiceName,
		"message": "ProtegeYa API is running",
		"version": h.Version,
		"time":    time.Now().UTC(),
	})
}

// JSON returns service status, runtime, request statistics and dependency state.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	report := healthsvc.Collect(c.UserContext(), h.Rdb, h.DB)
	code := fiber.StatusOK
	if report.Status == "issue" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"service":      ServiceName,
		"status":       report.Status,
		"runtime":      report.Runtime,
		"traffic":      report.Traffic,
		"dependencies": report.Dependencies,
	})
}

// Errors returns the latest logged server errors, newest first.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := healthsvc.RecentErrors(c.UserContext(), h.Rdb, errorLogLimit)
	if err != nil {
		log.Error().Err(err).Msg("health: read error log")
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	return c.JSON(entries)
}

// Reset clears request statistics. Requires ?key= matching HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if h.HealthAdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.HealthAdminKey)) != 1 {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	if h.Rdb == nil {
		return response.Error(c, "Redis is not configured", fiber.StatusServiceUnavailable, nil)
	}
	if err := healthsvc.Reset(c.UserContext(), h.Rdb, time.Now()); err != nil {
		log.Error().Err(err).Msg("health: reset stats")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}
