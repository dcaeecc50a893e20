package health

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"protegeya-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHealthApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	h := &Handlers{Rdb: rdb, DB: sqlDB, HealthAdminKey: "secret", Version: "test"}
	app := fiber.New()
	app.Use(middleware.HealthMarker(rdb))
	app.Get("/", h.Root)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Post("/health/reset", h.Reset)
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	return app, mr
}

func decode(t *testing.T, app *fiber.App, method, path string) (int, interface{}) {
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	var out interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestRoot(t *testing.T) {
	app, _ := setupHealthApp(t)
	code, body := decode(t, app, "GET", "/")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, ServiceName, body.(map[string]interface{})["service"])
}

func TestJSON_CountsTraffic(t *testing.T) {
	app, _ := setupHealthApp(t)
	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/ping", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	code, body := decode(t, app, "GET", "/health/json")
	require.Equal(t, fiber.StatusOK, code)
	m := body.(map[string]interface{})
	assert.Equal(t, "ok", m["status"])
	traffic := m["traffic"].(map[string]interface{})
	assert.Equal(t, float64(2), traffic["totalRequests"])
	assert.Equal(t, "100.0", traffic["successRate"])
	deps := m["dependencies"].(map[string]interface{})
	assert.Equal(t, "connected", deps["database"].(map[string]interface{})["status"])
	assert.Equal(t, "connected", deps["redis"].(map[string]interface{})["status"])
}

func TestErrors(t *testing.T) {
	app, mr := setupHealthApp(t)
	mr.Lpush(middleware.KeyErrorLog, `{"path":"/api/a","status":500}`)
	mr.Lpush(middleware.KeyErrorLog, `{"path":"/api/b","status":500}`)

	code, body := decode(t, app, "GET", "/health/errors")
	require.Equal(t, fiber.StatusOK, code)
	list := body.([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "/api/b", list[0].(map[string]interface{})["path"])
}

func TestReset(t *testing.T) {
	app, mr := setupHealthApp(t)
	require.NoError(t, mr.Set(middleware.KeyReqTotal, "9"))

	code, _ := decode(t, app, "POST", "/health/reset?key=wrong")
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.True(t, mr.Exists(middleware.KeyReqTotal))

	code, _ = decode(t, app, "POST", "/health/reset?key=secret")
	require.Equal(t, fiber.StatusOK, code)
	assert.False(t, mr.Exists(middleware.KeyReqTotal))
	assert.True(t, mr.Exists(middleware.KeyStartTime))
}
