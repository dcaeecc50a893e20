package exclusions

import (
	exclsvc "protegeya-backend/internal/application/exclusions"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *exclsvc.Service
}

// GET /api/admin/vehiculos-no-asegurables
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext())
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Vehicle exclusions fetched successfully", list, fiber.Map{"count": len(list)})
}

// POST /api/admin/vehiculos-no-asegurables
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in exclsvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	ex, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.SuccessCreated(c, "Vehicle exclusion created successfully", ex, nil)
}

// PUT /api/admin/vehiculos-no-asegurables/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in exclsvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	ex, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Vehicle exclusion updated successfully", ex, nil)
}

// DELETE /api/admin/vehiculos-no-asegurables/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Vehicle exclusion deleted successfully", fiber.Map{"id": id}, nil)
}
