package exclusions

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	exclsvc "protegeya-backend/internal/application/exclusions"
	"protegeya-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupExclusionsTest(t *testing.T) *fiber.App {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.VehicleExclusion{}))
	h := &Handlers{Service: &exclsvc.Service{DB: db}}
	app := fiber.New()
	app.Get("/vehiculos", h.List)
	app.Post("/vehiculos", h.Create)
	app.Put("/vehiculos/:id", h.Update)
	app.Delete("/vehiculos/:id", h.Delete)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestExclusionLifecycle(t *testing.T) {
	app := setupExclusionsTest(t)

	code, body := send(t, app, "POST", "/vehiculos", map[string]interface{}{"make": "Lada", "model": "Niva", "year": 1995, "reason": "Sin repuestos"})
	require.Equal(t, fiber.StatusCreated, code, body)
	data := body["data"].(map[string]interface{})
	id := data["id"].(string)
	assert.Equal(t, true, data["active"])
	assert.Equal(t, float64(1995), data["year"])

	code, body = send(t, app, "PUT", "/vehiculos/"+id, map[string]interface{}{"make": "Lada", "model": "Niva", "active": false})
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, false, body["data"].(map[string]interface{})["active"])
	assert.Nil(t, body["data"].(map[string]interface{})["year"])

	code, body = send(t, app, "GET", "/vehiculos", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, _ = send(t, app, "DELETE", "/vehiculos/"+id, nil)
	assert.Equal(t, fiber.StatusOK, code)
	code, _ = send(t, app, "DELETE", "/vehiculos/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestCreate_Validation(t *testing.T) {
	app := setupExclusionsTest(t)
	code, body := send(t, app, "POST", "/vehiculos", map[string]interface{}{"model": "Niva"})
	assert.Equal(t, fiber.StatusBadRequest, code)
	fields := body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "make")

	code, _ = send(t, app, "PUT", "/vehiculos/"+uuid.NewString(), map[string]interface{}{"make": "A", "model": "B"})
	assert.Equal(t, fiber.StatusNotFound, code)
}
