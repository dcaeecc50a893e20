package insurers

import (
	"context"
	"testing"

	"protegeya-backend/internal/application/quotes"
	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupInsurersTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Insurer{}, &domain.RateTable{}, &domain.VehicleExclusion{}))
	return &Service{DB: db}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tables() []RateTableInput {
	upper := d("100000")
	return []RateTableInput{
		{RateTable: domain.RateTable{
			CoverageType:     domain.FullCoverage,
			ProductName:      "Completo",
			TaxRate:          d("0.12"),
			InstallmentCount: 12,
			MinimumPremium:   d("800"),
			RateBands: []domain.RateBand{
				{LowerBound: d("0"), UpperBound: &upper, RatePercent: d("3")},
				{LowerBound: d("100000"), RatePercent: d("2.5")},
			},
			YearFrom: 2000,
			YearTo:   2030,
		}},
		{RateTable: domain.RateTable{
			CoverageType:     domain.ThirdParty,
			ProductName:      "RC",
			TaxRate:          d("0.12"),
			InstallmentCount: 12,
			NetPremium:       d("1100"),
			YearFrom:         1990,
			YearTo:           2030,
		}},
	}
}

func TestCreate_PersistsTables(t *testing.T) {
	svc := setupInsurersTest(t)
	ctx := context.Background()

	insurer, err := svc.Create(ctx, Input{Name: "Seguros El Roble", RateTables: tables()})
	require.NoError(t, err)
	assert.True(t, insurer.Active)
	require.Len(t, insurer.RateTables, 2)
	for _, rt := range insurer.RateTables {
		assert.True(t, rt.Active)
		assert.Equal(t, insurer.ID, rt.InsurerID)
	}

	_, err = svc.Create(ctx, Input{Name: "seguros el roble"})
	assert.ErrorIs(t, err, domain.ErrInsurerNameTaken)
}

func TestCreate_KeepsInactiveTable(t *testing.T) {
	svc := setupInsurersTest(t)
	ctx := context.Background()
	in := tables()
	off := false
	in[1].Active = &off

	insurer, err := svc.Create(ctx, Input{Name: "Aseguradora Rural", RateTables: in})
	require.NoError(t, err)
	require.Len(t, insurer.RateTables, 2)
	active := map[domain.CoverageType]bool{}
	for _, rt := range insurer.RateTables {
		active[rt.CoverageType] = rt.Active
	}
	assert.True(t, active[domain.FullCoverage], "table without active flag defaults to active")
	assert.False(t, active[domain.ThirdParty])

	engine := &quotes.Service{DB: svc.DB}
	res, err := engine.Simulate(ctx, domain.Vehicle{Make: "Toyota", Model: "Hilux", Year: 2020, Value: d("150000")})
	require.NoError(t, err)
	require.Len(t, res.Quotes, 1)
	assert.Equal(t, domain.FullCoverage, res.Quotes[0].CoverageType)

	on := true
	in[1].Active = &on
	updated, err := svc.Update(ctx, insurer.ID, Input{Name: "Aseguradora Rural", RateTables: in[1:]})
	require.NoError(t, err)
	require.Len(t, updated.RateTables, 1)
	assert.True(t, updated.RateTables[0].Active)
}

func TestCreate_RejectsMalformedTable(t *testing.T) {
	svc := setupInsurersTest(t)
	bad := tables()
	bad[0].RateBands[1].LowerBound = d("150000")
	bad = append(bad, bad[1])

	_, err := svc.Create(context.Background(), Input{Name: "G&T", RateTables: bad})
	fields, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, fields, "rate_tables[0].rate_bands[1].lower_bound")
	assert.Contains(t, fields, "rate_tables[2].coverage_type")
}

func TestUpdate_ReplacesTables(t *testing.T) {
	svc := setupInsurersTest(t)
	ctx := context.Background()
	insurer, err := svc.Create(ctx, Input{Name: "Mapfre", RateTables: tables()})
	require.NoError(t, err)

	off := false
	updated, err := svc.Update(ctx, insurer.ID, Input{Name: "Mapfre GT", Active: &off, RateTables: tables()[1:]})
	require.NoError(t, err)
	assert.Equal(t, "Mapfre GT", updated.Name)
	assert.False(t, updated.Active)
	require.Len(t, updated.RateTables, 1)
	assert.Equal(t, domain.ThirdParty, updated.RateTables[0].CoverageType)

	var count int64
	svc.DB.Model(&domain.RateTable{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDelete(t *testing.T) {
	svc := setupInsurersTest(t)
	ctx := context.Background()
	insurer, err := svc.Create(ctx, Input{Name: "Universales", RateTables: tables()})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, insurer.ID))
	_, err = svc.Get(ctx, insurer.ID)
	assert.ErrorIs(t, err, domain.ErrInsurerNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), domain.ErrInsurerNotFound)

	var count int64
	svc.DB.Model(&domain.RateTable{}).Count(&count)
	assert.Zero(t, count)
}
