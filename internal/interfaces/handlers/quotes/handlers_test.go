package quotes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	quotesvc "protegeya-backend/internal/application/quotes"
	"protegeya-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupQuotesTest(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Insurer{}, &domain.RateTable{}, &domain.VehicleExclusion{}))
	h := &Handlers{Service: &quotesvc.Service{DB: db, Now: func() time.Time {
		return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}}}
	app := fiber.New()
	app.Post("/api/quotes/simulate", h.Simulate)
	return app, db
}

func post(t *testing.T, app *fiber.App, body interface{}) (int, map[string]interface{}) {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/api/quotes/simulate", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestSimulate_ReturnsQuotes(t *testing.T) {
	app, db := setupQuotesTest(t)
	insurer := domain.Insurer{Name: "Seguros El Roble", Active: true}
	require.NoError(t, db.Create(&insurer).Error)
	rt := domain.RateTable{
		InsurerID:        insurer.ID,
		CoverageType:     domain.FullCoverage,
		ProductName:      "Auto Total",
		TaxRate:          decimal.RequireFromString("0.12"),
		InstallmentCount: 12,
		AssistanceFee:    decimal.RequireFromString("75"),
		RateBands: []domain.RateBand{
			{LowerBound: decimal.Zero, RatePercent: decimal.RequireFromString("3.5")},
		},
		YearFrom: 2000,
		YearTo:   2026,
		Active:   true,
	}
	require.NoError(t, db.Create(&rt).Error)

	code, body := post(t, app, map[string]interface{}{"make": "Toyota", "model": "Corolla", "year": 2020, "value": "120000"})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["excluded"])
	quotes := data["quotes"].([]interface{})
	require.Len(t, quotes, 1)
	assert.Equal(t, "Seguros El Roble", quotes[0].(map[string]interface{})["insurer_name"])
	assert.NotEmpty(t, data["disclaimer"])
}

func TestSimulate_ExcludedVehicle(t *testing.T) {
	app, db := setupQuotesTest(t)
	require.NoError(t, db.Create(&domain.VehicleExclusion{Make: "Lada", Model: "Niva", Reason: "Sin repuestos", Active: true}).Error)

	code, body := post(t, app, map[string]interface{}{"make": " lada ", "model": "NIVA", "year": 2010, "value": 30000})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Vehicle is not insurable", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["excluded"])
	assert.Equal(t, "Sin repuestos", data["exclusion_reason"])
	assert.Empty(t, data["quotes"])
}

func TestSimulate_Validation(t *testing.T) {
	app, _ := setupQuotesTest(t)

	code, body := post(t, app, map[string]interface{}{"make": "Toyota", "year": 1900, "value": 0})
	assert.Equal(t, fiber.StatusBadRequest, code)
	fields := body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "model")
	assert.Contains(t, fields, "year")
	assert.Contains(t, fields, "value")

	req := httptest.NewRequest("POST", "/api/quotes/simulate", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
