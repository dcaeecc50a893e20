package settings

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	settingssvc "protegeya-backend/internal/application/settings"
	"protegeya-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSettingsApp(t *testing.T) *fiber.App {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.SystemConfiguration{}))

	h := &Handlers{Service: &settingssvc.Service{DB: db}}
	app := fiber.New()
	app.Get("/api/admin/configuration", h.Get)
	app.Get("/api/admin/configuration/history", h.History)
	app.Put("/api/admin/configuration", h.Update)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestConfiguration_GetDefaults(t *testing.T) {
	app := setupSettingsApp(t)
	code, body := call(t, app, "GET", "/api/admin/configuration", nil, nil)
	require.Equal(t, fiber.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Emergent", data["ai_provider"])
	assert.Equal(t, float64(0), data["version"])
	assert.Equal(t, settingssvc.DefaultChatPrompt, data["ai_chat_prompt"])
}

func TestConfiguration_UpdateMasksSecrets(t *testing.T) {
	app := setupSettingsApp(t)
	in := map[string]interface{}{
		"whatsapp_enabled":     true,
		"ai_provider":          "OpenAIPersonal",
		"ultramsg_instance_id": "instance42",
		"ultramsg_token":       "tok-abcdef",
		"openai_api_key":       "sk-test-12345678",
	}
	code, body := call(t, app, "PUT", "/api/admin/configuration", in, map[string]string{UpdatedByHeader: "ana"})
	require.Equal(t, fiber.StatusOK, code, body)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["version"])
	assert.Equal(t, "ana", data["updated_by"])
	assert.Equal(t, "****5678", data["openai_api_key"])
	assert.Equal(t, "****cdef", data["ultramsg_token"])

	// the masked value sent back keeps the stored key
	in["openai_api_key"] = "****5678"
	code, body = call(t, app, "PUT", "/api/admin/configuration", in, nil)
	require.Equal(t, fiber.StatusOK, code, body)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["version"])
	assert.Equal(t, "admin", data["updated_by"])
	assert.Equal(t, "****5678", data["openai_api_key"])

	code, body = call(t, app, "GET", "/api/admin/configuration/history", nil, nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Len(t, body["data"], 2)
}

func TestConfiguration_UpdateValidation(t *testing.T) {
	app := setupSettingsApp(t)

	code, body := call(t, app, "PUT", "/api/admin/configuration", map[string]interface{}{"ai_provider": "Other"}, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	fields := body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "ai_provider")

	code, body = call(t, app, "PUT", "/api/admin/configuration", map[string]interface{}{"ai_provider": "Emergent", "whatsapp_enabled": true}, nil)
	assert.Equal(t, fiber.StatusBadRequest, code)
	fields = body["error"].(map[string]interface{})["details"].(map[string]interface{})["fields"].(map[string]interface{})
	assert.Contains(t, fields, "ultramsg_instance_id")
	assert.Contains(t, fields, "ultramsg_token")
}
