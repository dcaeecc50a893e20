package exclusions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type Input struct {
	Make   string `json:"make" validate:"required"`
	Model  string `json:"model" validate:"required"`
	Year   *int   `json:"year" validate:"omitempty,gte=1900,lte=2100"`
	Reason string `json:"reason"`
	Active *bool  `json:"active"`
}

func (in *Input) normalize() error {
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Reason = strings.TrimSpace(in.Reason)
	return validation.Struct(in)
}

func (s *Service) List(ctx context.Context) ([]domain.VehicleExclusion, error) {
	var out []domain.VehicleExclusion
	if err := s.DB.WithContext(ctx).Order("make, model, year").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch vehicle exclusions: %w", err)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.VehicleExclusion, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	ex := &domain.VehicleExclusion{
		Make:   in.Make,
		Model:  in.Model,
		Year:   in.Year,
		Reason: in.Reason,
		Active: in.Active == nil || *in.Active,
	}
	if err := s.DB.WithContext(ctx).Create(ex).Error; err != nil {
		return nil, fmt.Errorf("Failed to create vehicle exclusion: %w", err)
	}
	return ex, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*domain.VehicleExclusion, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var ex domain.VehicleExclusion
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&ex).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrExclusionNotFound
		}
		return nil, err
	}
	ex.Make, ex.Model, ex.Year, ex.Reason = in.Make, in.Model, in.Year, in.Reason
	if in.Active != nil {
		ex.Active = *in.Active
	}
	if err := s.DB.WithContext(ctx).Save(&ex).Error; err != nil {
		return nil, fmt.Errorf("Failed to update vehicle exclusion: %w", err)
	}
	return &ex, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.VehicleExclusion{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrExclusionNotFound
	}
	return nil
}
