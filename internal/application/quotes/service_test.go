package quotes

import (
	"context"
	"testing"
	"time"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupQuotesTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Insurer{}, &domain.RateTable{}, &domain.VehicleExclusion{}))
	return &Service{DB: db, Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }}
}

func TestSimulate_UsesStoredConfiguration(t *testing.T) {
	svc := setupQuotesTest(t)
	insurer := domain.Insurer{Name: "Alfa", Active: true}
	require.NoError(t, svc.DB.Create(&insurer).Error)
	rt := fullCoverageTable(insurer.ID)
	require.NoError(t, svc.DB.Create(&rt).Error)
	require.NoError(t, svc.DB.Create(&domain.VehicleExclusion{Make: "Jeep", Model: "Wrangler", Reason: "Sin cobertura", Active: true}).Error)

	res, err := svc.Simulate(context.Background(), domain.Vehicle{Make: "Toyota", Model: "Corolla", Year: 2020, Value: dec("150000")})
	require.NoError(t, err)
	require.Len(t, res.Quotes, 1)
	assert.Equal(t, "357.47", res.Quotes[0].MonthlyPremium.StringFixed(2))
	assert.Equal(t, "Alfa", res.Quotes[0].InsurerName)

	res, err = svc.Simulate(context.Background(), domain.Vehicle{Make: "JEEP", Model: "wrangler", Year: 2020, Value: dec("150000")})
	require.NoError(t, err)
	assert.True(t, res.Excluded)
	assert.Empty(t, res.Quotes)
}

func TestSimulate_RejectsInvalidVehicle(t *testing.T) {
	svc := setupQuotesTest(t)
	_, err := svc.Simulate(context.Background(), domain.Vehicle{Model: "Corolla", Year: 2027, Value: dec("-1")})
	require.Error(t, err)
	fields, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "make")
	assert.Contains(t, fields, "year")
	assert.Contains(t, fields, "value")
	assert.NotContains(t, fields, "model")

	assert.NoError(t, ValidateVehicle(domain.Vehicle{Make: "A", Model: "B", Year: 2026, Value: dec("1")}, svc.Now()))
}
