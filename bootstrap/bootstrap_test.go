package bootstrap

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"protegeya-backend/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		DatabaseURL:   "sqlite::memory:",
		AdminAPIKey:   "k",
		Location:      time.UTC,
		GracePeriod:   7 * 24 * time.Hour,
		ChargesCron:   "5 0 * * *",
		OverdueCron:   "15 0 * * *",
		LeadResetCron: "0 0 1 * *",
	}
}

func TestNew_WiresAppAndJobs(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)
	defer app.Close(context.Background())

	assert.Nil(t, app.Redis)
	assert.Equal(t, 3, app.Scheduler.Entries())
	require.NoError(t, app.Ping(context.Background()))

	resp, err := app.Fiber.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	app, err := New(cfg)
	require.NoError(t, err)
	defer app.Close(context.Background())
	require.NotNil(t, app.Redis)
	require.NoError(t, app.Ping(context.Background()))
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseURL = ""
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.ChargesCron = "not a schedule"
	_, err = New(cfg)
	assert.Error(t, err)
}
