package quotes

import (
	quotesvc "protegeya-backend/internal/application/quotes"
	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/interfaces/handlers/httpx"
	"protegeya-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *quotesvc.Service
}

// POST /api/quotes/simulate
func (h *Handlers) Simulate(c *fiber.Ctx) error {
	var v domain.Vehicle
	if err := httpx.Bind(c, &v); err != nil {
		return httpx.Fail(c, err)
	}
	res, err := h.Service.Simulate(c.UserContext(), v)
	if err != nil {
		return httpx.Fail(c, err)
	}
	msg := "Quotes calculated successfully"
	if res.Excluded {
		msg = "Vehicle is not insurable"
	}
	return response.Success(c, msg, res, fiber.Map{"count": len(res.Quotes)})
}
