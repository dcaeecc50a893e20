package insurers

import (
	inssvc "protegeya-backend/internal/application/insurers"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *inssvc.Service
}

// GET /api/admin/aseguradoras?active=true
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Insurers fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/admin/aseguradoras/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	insurer, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Insurer fetched successfully", insurer, nil)
}

// POST /api/admin/aseguradoras
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in inssvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	insurer, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.SuccessCreated(c, "Insurer created successfully", insurer, nil)
}

// PUT /api/admin/aseguradoras/:id replaces the insurer and its rate tables.
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in inssvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	insurer, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Insurer updated successfully", insurer, nil)
}

// DELETE /api/admin/aseguradoras/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Insurer deleted successfully", fiber.Map{"id": id}, nil)
}
