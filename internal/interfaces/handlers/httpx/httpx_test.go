package httpx

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/middleware"
	"protegeya-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{validation.Errors{"amount": "is required"}, fiber.StatusBadRequest},
		{fmt.Errorf("load: %w", domain.ErrLeadNotFound), fiber.StatusNotFound},
		{domain.ErrInvalidAmount, fiber.StatusBadRequest},
		{domain.ErrBrokerInactive, fiber.StatusUnprocessableEntity},
		{domain.ErrNoEligibleBrokers, fiber.StatusConflict},
		{domain.ErrAccountAlreadyExists, fiber.StatusConflict},
		{domain.ErrLeadClosed, fiber.StatusConflict},
		{domain.ErrConcurrentUpdate, fiber.StatusConflict},
		{domain.ErrJobRunning, fiber.StatusConflict},
		{fiber.NewError(fiber.StatusBadRequest, "Invalid request body"), fiber.StatusBadRequest},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func decode(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestFail_Envelope(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(nil)})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return Fail(c, fmt.Errorf("Failed to assign: %w", domain.ErrNoEligibleBrokers))
	})
	app.Get("/fields", func(c *fiber.Ctx) error {
		return Fail(c, validation.Errors{"vehicle.year": "must be at least 1950"})
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return Fail(c, fmt.Errorf("pq: relation does not exist"))
	})

	code, body := decode(t, app, "/wrapped")
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, domain.ErrNoEligibleBrokers.Error(), body["error"].(map[string]interface{})["message"])

	code, body = decode(t, app, "/fields")
	assert.Equal(t, fiber.StatusBadRequest, code)
	details := body["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "must be at least 1950", details["fields"].(map[string]interface{})["vehicle.year"])

	code, body = decode(t, app, "/internal")
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "Internal Server Error", body["error"].(map[string]interface{})["message"])
}

func TestParams(t *testing.T) {
	app := fiber.New()
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		id, err := ParamUUID(c, "id")
		if err != nil {
			return Fail(c, err)
		}
		n, err := QueryInt(c, "n", 7)
		if err != nil {
			return Fail(c, err)
		}
		_, present, err := QueryUUID(c, "broker_id")
		if err != nil {
			return Fail(c, err)
		}
		return c.JSON(fiber.Map{"id": id.String(), "n": n, "present": present})
	})

	code, body := decode(t, app, "/items/not-a-uuid")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"], "id")

	code, body = decode(t, app, "/items/6f1c1c3e-8a55-4a4f-9d0e-0b1a2c3d4e5f")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, float64(7), body["n"])
	assert.Equal(t, false, body["present"])

	code, _ = decode(t, app, "/items/6f1c1c3e-8a55-4a4f-9d0e-0b1a2c3d4e5f?n=x")
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = decode(t, app, "/items/6f1c1c3e-8a55-4a4f-9d0e-0b1a2c3d4e5f?broker_id=bad")
	assert.Equal(t, fiber.StatusBadRequest, code)
}
