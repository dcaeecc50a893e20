package settings

import (
	"strings"

	settingssvc "protegeya-backend/internal/application/settings"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UpdatedByHeader names the operator recorded on a configuration version.
const UpdatedByHeader = "X-Admin-User"

type Handlers struct {
	Service *settingssvc.Service
}

// GET /api/admin/configuration
func (h *Handlers) Get(c *fiber.Ctx) error {
	cfg, err := h.Service.Current(c.UserContext())
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Configuration fetched successfully", cfg, nil)
}

// GET /api/admin/configuration/history
func (h *Handlers) History(c *fiber.Ctx) error {
	limit, err := httpx.QueryInt(c, "limit", 20)
	if err != nil {
		return httpx.Fail(c, err)
	}
	list, err := h.Service.History(c.UserContext(), limit)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Configuration history fetched successfully", list, fiber.Map{"count": len(list)})
}

// PUT /api/admin/configuration
func (h *Handlers) Update(c *fiber.Ctx) error {
	var in settingssvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	by := strings.TrimSpace(c.Get(UpdatedByHeader))
	if by == "" {
		by = "admin"
	}
	cfg, err := h.Service.Update(c.UserContext(), in, by)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Configuration updated successfully", cfg, nil)
}
