package brokers

import (
	"context"

	brokersvc "protegeya-backend/internal/application/brokers"
	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/infrastructure/lock"
	"protegeya-backend/internal/infrastructure/scheduler"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"
	"protegeya-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *brokersvc.Service
	Locker  lock.Locker
}

// GET /api/brokers?status=Active
func (h *Handlers) List(c *fiber.Ctx) error {
	status := domain.SubscriptionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		return httpx.Fail(c, validation.Errors{"status": "must be one of: Active Inactive PastDue Canceled"})
	}
	list, err := h.Service.List(c.UserContext(), brokersvc.ListFilter{Status: status})
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Brokers fetched successfully", list, fiber.Map{
		"count":  len(list),
		"period": h.Service.CurrentPeriod(),
	})
}

// POST /api/brokers
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in brokersvc.CreateInput
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	b, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.SuccessCreated(c, "Broker created successfully", b, nil)
}

// GET /api/brokers/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	b, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Broker fetched successfully", b, nil)
}

// PUT /api/brokers/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in brokersvc.UpdateInput
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	b, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Broker updated successfully", b, nil)
}

// PUT /api/brokers/:id/subscription?status=Inactive
func (h *Handlers) UpdateSubscription(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	b, err := h.Service.UpdateSubscriptionStatus(c.UserContext(), id, domain.SubscriptionStatus(c.Query("status")))
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Broker subscription updated successfully", b, nil)
}

// DELETE /api/brokers/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Broker deleted successfully", fiber.Map{"id": id}, nil)
}

// POST /api/admin/brokers/reset-monthly-leads
func (h *Handlers) ResetMonthlyLeads(c *fiber.Ctx) error {
	var reset int64
	err := lock.Run(c.UserContext(), h.Locker, scheduler.JobResetLeads, scheduler.LockTTL, func(ctx context.Context) error {
		var err error
		reset, err = h.Service.ResetMonthlyLeadCounters(ctx)
		return err
	})
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Monthly lead counters reset", fiber.Map{
		"brokers_reset": reset,
		"period":        h.Service.CurrentPeriod(),
	}, nil)
}
