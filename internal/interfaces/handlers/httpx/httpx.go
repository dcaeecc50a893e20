package httpx

import (
	"errors"
	"strconv"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/response"
	"protegeya-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var statusBySentinel = []struct {
	err  error
	code int
}{
	{domain.ErrInsurerNotFound, fiber.StatusNotFound},
	{domain.ErrExclusionNotFound, fiber.StatusNotFound},
	{domain.ErrBrokerNotFound, fiber.StatusNotFound},
	{domain.ErrLeadNotFound, fiber.StatusNotFound},
	{domain.ErrPlanNotFound, fiber.StatusNotFound},
	{domain.ErrAccountNotFound, fiber.StatusNotFound},

	{domain.ErrInvalidAmount, fiber.StatusBadRequest},

	{domain.ErrBrokerInactive, fiber.StatusUnprocessableEntity},
	{domain.ErrPlanInactive, fiber.StatusUnprocessableEntity},
	{domain.ErrLeadNotAssigned, fiber.StatusUnprocessableEntity},

	{domain.ErrInsurerNameTaken, fiber.StatusConflict},
	{domain.ErrBrokerEmailTaken, fiber.StatusConflict},
	{domain.ErrBrokerHasLeads, fiber.StatusConflict},
	{domain.ErrLeadClosed, fiber.StatusConflict},
	{domain.ErrNoEligibleBrokers, fiber.StatusConflict},
	{domain.ErrPlanInUse, fiber.StatusConflict},
	{domain.ErrAccountAlreadyExists, fiber.StatusConflict},
	{domain.ErrAccountNotSuspended, fiber.StatusConflict},
	{domain.ErrOutstandingBalance, fiber.StatusConflict},
	{domain.ErrDuplicateCharge, fiber.StatusConflict},
	{domain.ErrConcurrentUpdate, fiber.StatusConflict},
	{domain.ErrJobRunning, fiber.StatusConflict},
	{gorm.ErrDuplicatedKey, fiber.StatusConflict},
}

// Status maps a service error to its HTTP status code.
func Status(err error) int {
	if _, ok := validation.AsErrors(err); ok {
		return fiber.StatusBadRequest
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return fiber.StatusInternalServerError
}

// Fail writes err with the standard error envelope. Unknown errors are returned to the
// global error handler, which logs them and answers 500.
func Fail(c *fiber.Ctx, err error) error {
	if fields, ok := validation.AsErrors(err); ok {
		return response.ValidationFailed(c, fields)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return response.Error(c, s.err.Error(), s.code, nil)
		}
	}
	return err
}

// Bind decodes the JSON body into v.
func Bind(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}

// ParamUUID parses a path parameter.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, validation.Errors{name: "must be a valid UUID"}
	}
	return id, nil
}

// QueryUUID parses an optional query parameter; ok is false when it is absent.
func QueryUUID(c *fiber.Ctx, name string) (id uuid.UUID, ok bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, validation.Errors{name: "must be a valid UUID"}
	}
	return id, true, nil
}

// QueryInt parses an optional integer query parameter, returning def when absent.
func QueryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errors{name: "must be an integer"}
	}
	return n, nil
}
