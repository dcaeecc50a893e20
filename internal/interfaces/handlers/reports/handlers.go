package reports

import (
	reportssvc "protegeya-backend/internal/application/reports"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"
	"protegeya-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *reportssvc.Service
}

// GET /api/reports/kpi?year=&month=
// Without year the report covers every lead; month 0 or absent covers the whole year.
func (h *Handlers) KPI(c *fiber.Ctx) error {
	year, err := httpx.QueryInt(c, "year", 0)
	if err != nil {
		return httpx.Fail(c, err)
	}
	month, err := httpx.QueryInt(c, "month", 0)
	if err != nil {
		return httpx.Fail(c, err)
	}
	errs := validation.Errors{}
	if month < 0 || month > 12 {
		errs.Add("month", "must be between 1 and 12")
	}
	if month > 0 && year == 0 {
		errs.Add("year", "is required when month is set")
	}
	if year != 0 && (year < 2000 || year > 2100) {
		errs.Add("year", "must be between 2000 and 2100")
	}
	if err := errs.OrNil(); err != nil {
		return httpx.Fail(c, err)
	}

	var r reportssvc.Range
	if year != 0 {
		r = reportssvc.MonthRange(year, month, h.Service.Location)
	}
	kpi, err := h.Service.KPI(c.UserContext(), r)
	if err != nil {
		return httpx.Fail(c, err)
	}
	return response.Success(c, "KPI report generated", kpi, fiber.Map{"year": year, "month": month})
}
