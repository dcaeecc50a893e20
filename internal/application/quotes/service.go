package quotes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"gorm.io/gorm"
)

// MinVehicleYear is the oldest model year accepted for quoting.
const MinVehicleYear = 1950

type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ValidateVehicle checks the vehicle descriptor before any pricing.
func ValidateVehicle(v domain.Vehicle, now time.Time) error {
	errs := validation.Errors{}
	if strings.TrimSpace(v.Make) == "" {
		errs.Add("make", "is required")
	}
	if strings.TrimSpace(v.Model) == "" {
		errs.Add("model", "is required")
	}
	if v.Year < MinVehicleYear || v.Year > now.Year()+1 {
		errs.Add("year", fmt.Sprintf("must be between %d and %d", MinVehicleYear, now.Year()+1))
	}
	if !v.Value.IsPositive() {
		errs.Add("value", "must be greater than 0")
	}
	return errs.OrNil()
}

// Simulate quotes v against the currently active rating configuration.
func (s *Service) Simulate(ctx context.Context, v domain.Vehicle) (*Result, error) {
	if err := ValidateVehicle(v, s.now()); err != nil {
		return nil, err
	}
	engine, err := s.LoadEngine(ctx)
	if err != nil {
		return nil, err
	}
	res := engine.Quote(v)
	return &res, nil
}

// LoadEngine snapshots insurers, active rate tables and active exclusions.
func (s *Service) LoadEngine(ctx context.Context) (*Engine, error) {
	db := s.DB.WithContext(ctx)
	var insurers []domain.Insurer
	if err := db.Find(&insurers).Error; err != nil {
		return nil, fmt.Errorf("Failed to load insurers: %w", err)
	}
	var tables []domain.RateTable
	if err := db.Where("active = ?", true).Order("insurer_id, coverage_type").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("Failed to load rate tables: %w", err)
	}
	var exclusions []domain.VehicleExclusion
	if err := db.Where("active = ?", true).Find(&exclusions).Error; err != nil {
		return nil, fmt.Errorf("Failed to load vehicle exclusions: %w", err)
	}
	return NewEngine(insurers, tables, exclusions), nil
}
