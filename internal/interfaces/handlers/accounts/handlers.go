package accounts

import (
	"context"

	accsvc "protegeya-backend/internal/application/accounts"
	"protegeya-backend/internal/infrastructure/lock"
	"protegeya-backend/internal/infrastructure/scheduler"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"
	"protegeya-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *accsvc.Service
	Locker  lock.Locker
}

// GET /api/admin/accounts
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.ListAccounts(c.UserContext())
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Accounts fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/admin/accounts/:broker_id
func (h *Handlers) Get(c *fiber.Ctx) error {
	brokerID, err := httpx.ParamUUID(c, "broker_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	acct, err := h.Service.GetAccount(c.UserContext(), brokerID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Account fetched successfully", acct, nil)
}

// GET /api/admin/transactions/:account_id
func (h *Handlers) Transactions(c *fiber.Ctx) error {
	accountID, err := httpx.ParamUUID(c, "account_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	list, err := h.Service.ListTransactions(c.UserContext(), accountID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Transactions fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/admin/accounts/:account_id/status-history
func (h *Handlers) StatusHistory(c *fiber.Ctx) error {
	accountID, err := httpx.ParamUUID(c, "account_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	list, err := h.Service.StatusHistory(c.UserContext(), accountID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Status history fetched successfully", list, nil)
}

type assignPlanBody struct {
	SubscriptionPlanID string `json:"subscription_plan_id"`
}

// POST /api/admin/brokers/:id/assign-plan
func (h *Handlers) AssignPlan(c *fiber.Ctx) error {
	brokerID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var body assignPlanBody
	if err := httpx.Bind(c, &body); err != nil {
		return httpx.Fail(c, err)
	}
	planID, err := uuid.Parse(body.SubscriptionPlanID)
	if err != nil {
		return httpx.Fail(c, validation.Errors{"subscription_plan_id": "must be a valid UUID"})
	}
	acct, err := h.Service.AssignPlan(c.UserContext(), brokerID, planID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.SuccessCreated(c, "Subscription plan assigned successfully", acct, nil)
}

// POST /api/admin/accounts/:broker_id/apply-payment
func (h *Handlers) ApplyPayment(c *fiber.Ctx) error {
	brokerID, err := httpx.ParamUUID(c, "broker_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in accsvc.PaymentInput
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	res, err := h.Service.ApplyPayment(c.UserContext(), brokerID, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Payment applied successfully", res, nil)
}

// POST /api/admin/accounts/:broker_id/adjust
func (h *Handlers) Adjust(c *fiber.Ctx) error {
	brokerID, err := httpx.ParamUUID(c, "broker_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in accsvc.AdjustmentInput
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	res, err := h.Service.ApplyAdjustment(c.UserContext(), brokerID, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Adjustment applied successfully", res, nil)
}

// POST /api/admin/accounts/:broker_id/reactivate
func (h *Handlers) Reactivate(c *fiber.Ctx) error {
	brokerID, err := httpx.ParamUUID(c, "broker_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	acct, err := h.Service.Reactivate(c.UserContext(), brokerID)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Account reactivated successfully", acct, nil)
}

// POST /api/admin/accounts/generate-charges
func (h *Handlers) GenerateCharges(c *fiber.Ctx) error {
	var run *accsvc.ChargeRun
	err := lock.Run(c.UserContext(), h.Locker, scheduler.JobGenerateCharges, scheduler.LockTTL, func(ctx context.Context) error {
		var err error
		run, err = h.Service.GenerateMonthlyCharges(ctx)
		return err
	})
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Monthly charges generated", run, nil)
}

// POST /api/admin/accounts/check-overdue
func (h *Handlers) CheckOverdue(c *fiber.Ctx) error {
	var run *accsvc.OverdueRun
	err := lock.Run(c.UserContext(), h.Locker, scheduler.JobCheckOverdue, scheduler.LockTTL, func(ctx context.Context) error {
		var err error
		run, err = h.Service.CheckOverdueAccounts(ctx)
		return err
	})
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Overdue accounts checked", run, nil)
}
