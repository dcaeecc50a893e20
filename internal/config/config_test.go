package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_URL_TEST", "sqlite::memory:")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "sqlite::memory:", cfg.DatabaseURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.GracePeriod)
	assert.Equal(t, 2*time.Hour, cfg.SLAFirstContact)
	assert.Equal(t, 4*time.Hour, cfg.SLAReassignment)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, "0 0 1 * *", cfg.LeadResetCron)
	require.NotNil(t, cfg.Location)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL_PROD", "postgres://db/protegeya")
	t.Setenv("GRACE_PERIOD_DAYS", "3")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("ADMIN_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/protegeya", cfg.DatabaseURL)
	assert.Equal(t, 3*24*time.Hour, cfg.GracePeriod)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, "k", cfg.AdminAPIKey)
}

func TestLocation_FallsBackToFixedZone(t *testing.T) {
	loc := location("Nowhere/Invalid")
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -6*60*60, offset)
}
