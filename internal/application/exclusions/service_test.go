package exclusions

import (
	"context"
	"testing"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupExclusionsTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.VehicleExclusion{}))
	return &Service{DB: db}
}

func TestCreateUpdateDelete(t *testing.T) {
	svc := setupExclusionsTest(t)
	ctx := context.Background()

	year := 2008
	ex, err := svc.Create(ctx, Input{Make: " Nissan ", Model: "Frontier", Year: &year, Reason: "Sin repuestos"})
	require.NoError(t, err)
	assert.Equal(t, "Nissan", ex.Make)
	assert.True(t, ex.Active)

	inactive := false
	updated, err := svc.Update(ctx, ex.ID, Input{Make: "Nissan", Model: "Frontier", Reason: "Todos los años", Active: &inactive})
	require.NoError(t, err)
	assert.Nil(t, updated.Year)
	assert.False(t, updated.Active)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Active)

	require.NoError(t, svc.Delete(ctx, ex.ID))
	assert.ErrorIs(t, svc.Delete(ctx, ex.ID), domain.ErrExclusionNotFound)
}

func TestCreate_RequiresMakeAndModel(t *testing.T) {
	svc := setupExclusionsTest(t)
	_, err := svc.Create(context.Background(), Input{Make: "  "})
	fields, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["make"])
	assert.Equal(t, "is required", fields["model"])
}

func TestUpdate_NotFound(t *testing.T) {
	svc := setupExclusionsTest(t)
	_, err := svc.Update(context.Background(), uuid.New(), Input{Make: "A", Model: "B"})
	assert.ErrorIs(t, err, domain.ErrExclusionNotFound)
}
