package plans

import (
	plansvc "protegeya-backend/internal/application/plans"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *plansvc.Service
}

// GET /api/admin/plans?active=true
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Subscription plans fetched successfully", list, fiber.Map{"count": len(list)})
}

// POST /api/admin/plans
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in plansvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	plan, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.SuccessCreated(c, "Subscription plan created successfully", plan, nil)
}

// PUT /api/admin/plans/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in plansvc.Input
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	plan, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Subscription plan updated successfully", plan, nil)
}

// DELETE /api/admin/plans/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Subscription plan deleted successfully", fiber.Map{"id": id}, nil)
}
