package leads

import (
	leadsvc "protegeya-backend/internal/application/leads"
	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"
	"protegeya-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *leadsvc.Service
}

// GET /api/leads?broker_id=&status=&broker_status=&month=&year=
func (h *Handlers) List(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return httpx.Fail(c, err)
	}
	list, err := h.Service.List(c.UserContext(), f)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Leads fetched successfully", list, fiber.Map{"count": len(list)})
}

func listFilter(c *fiber.Ctx) (leadsvc.ListFilter, error) {
	var f leadsvc.ListFilter
	errs := validation.Errors{}
	if id, ok, err := httpx.QueryUUID(c, "broker_id"); err != nil {
		errs.Add("broker_id", "must be a valid UUID")
	} else if ok {
		f.BrokerID = &id
	}
	f.Status = domain.LeadStatus(c.Query("status"))
	if f.Status != "" && !f.Status.Valid() {
		errs.Add("status", "must be one of: PendingData QuotedNoPreference AssignedToBroker")
	}
	f.BrokerStatus = domain.BrokerLeadStatus(c.Query("broker_status"))
	if f.BrokerStatus != "" && !f.BrokerStatus.Valid() {
		errs.Add("broker_status", "is not a valid broker status")
	}
	month, err := httpx.QueryInt(c, "month", 0)
	if err != nil || month < 0 || month > 12 {
		errs.Add("month", "must be between 1 and 12")
	}
	year, err := httpx.QueryInt(c, "year", 0)
	if err != nil || year < 0 {
		errs.Add("year", "must be a valid year")
	}
	if month > 0 && year == 0 {
		errs.Add("year", "is required with month")
	}
	f.Month, f.Year = month, year
	return f, errs.OrNil()
}

// GET /api/leads/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	lead, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Lead fetched successfully", lead, nil)
}

// POST /api/admin/leads
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in leadsvc.CreateInput
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	lead, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.SuccessCreated(c, "Lead created successfully", lead, nil)
}

// DELETE /api/admin/leads/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Lead deleted successfully", fiber.Map{"id": id}, nil)
}

type bulkDeleteBody struct {
	LeadIDs []uuid.UUID `json:"lead_ids"`
}

// DELETE /api/admin/leads/bulk
func (h *Handlers) BulkDelete(c *fiber.Ctx) error {
	var body bulkDeleteBody
	if err := httpx.Bind(c, &body); err != nil {
		return httpx.Fail(c, err)
	}
	n, err := h.Service.BulkDelete(c.UserContext(), body.LeadIDs)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Leads deleted successfully", fiber.Map{
		"deleted":   n,
		"requested": len(body.LeadIDs),
	}, nil)
}

// POST /api/leads/:id/assign?broker_id=&force=true
// A lead that already has a broker is reassigned.
func (h *Handlers) Assign(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	brokerID, ok, err := httpx.QueryUUID(c, "broker_id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	if !ok {
		return httpx.Fail(c, validation.Errors{"broker_id": "is required"})
	}
	lead, err := h.Service.AssignManual(c.UserContext(), id, brokerID, c.QueryBool("force", false))
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Lead assigned successfully", lead, nil)
}

// POST /api/leads/:id/assign-auto
func (h *Handlers) AssignAuto(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	lead, err := h.Service.AssignAuto(c.UserContext(), id)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Lead assigned successfully", lead, nil)
}

// POST /api/leads/:id/status
func (h *Handlers) UpdateStatus(c *fiber.Ctx) error {
	id, err := httpx.ParamUUID(c, "id")
	if err != nil {
		return httpx.Fail(c, err)
	}
	var in leadsvc.StatusInput
	if err := httpx.Bind(c, &in); err != nil {
		return httpx.Fail(c, err)
	}
	lead, err := h.Service.UpdateBrokerStatus(c.UserContext(), id, in)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "Lead status updated successfully", lead, nil)
}
