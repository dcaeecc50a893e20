package insurers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"protegeya-backend/internal/application/quotes"
	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

// Input is an insurer together with its rate tables (at most one per coverage type).
type Input struct {
	Name       string           `json:"name"`
	LogoURL    *string          `json:"logo_url"`
	Active     *bool            `json:"active"`
	RateTables []RateTableInput `json:"rate_tables"`
}

// RateTableInput is a rate table as submitted by an admin. A table without "active" is stored active.
type RateTableInput struct {
	domain.RateTable
	Active *bool `json:"active"`
}

func (in Input) validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(in.Name) == "" {
		errs.Add("name", "is required")
	}
	seen := map[domain.CoverageType]bool{}
	for i, rt := range in.RateTables {
		prefix := fmt.Sprintf("rate_tables[%d]", i)
		if seen[rt.CoverageType] {
			errs.Add(prefix+".coverage_type", "duplicate coverage type")
		}
		seen[rt.CoverageType] = true
		if strings.TrimSpace(rt.ProductName) == "" {
			errs.Add(prefix+".product_name", "is required")
		}
		if err := quotes.ValidateRateTable(rt.RateTable); err != nil {
			if fields, ok := validation.AsErrors(err); ok {
				for f, msg := range fields {
					errs.Add(prefix+"."+f, msg)
				}
			}
		}
	}
	return errs.OrNil()
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Insurer, error) {
	q := s.DB.WithContext(ctx).Preload("RateTables").Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []domain.Insurer
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch insurers: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Insurer, error) {
	return find(s.DB.WithContext(ctx), id)
}

func find(db *gorm.DB, id uuid.UUID) (*domain.Insurer, error) {
	var insurer domain.Insurer
	if err := db.Preload("RateTables").Where("id = ?", id).First(&insurer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInsurerNotFound
		}
		return nil, err
	}
	return &insurer, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Insurer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	insurer := &domain.Insurer{
		Name:    strings.TrimSpace(in.Name),
		LogoURL: in.LogoURL,
		Active:  in.Active == nil || *in.Active,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, insurer.Name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Omit("RateTables").Create(insurer).Error; err != nil {
			return err
		}
		return createTables(tx, insurer.ID, in.RateTables)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, insurer.ID)
}

// Update replaces the insurer's fields and rate tables. Issued quotes are snapshots and keep their prices.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*domain.Insurer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		insurer, err := find(tx, id)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(in.Name)
		if err := ensureNameFree(tx, name, id); err != nil {
			return err
		}
		updates := map[string]interface{}{"name": name, "logo_url": in.LogoURL}
		if in.Active != nil {
			updates["active"] = *in.Active
		}
		if err := tx.Model(insurer).Omit("RateTables").Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("insurer_id = ?", id).Delete(&domain.RateTable{}).Error; err != nil {
			return err
		}
		return createTables(tx, id, in.RateTables)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := find(tx, id); err != nil {
			return err
		}
		if err := tx.Where("insurer_id = ?", id).Delete(&domain.RateTable{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.Insurer{}).Error
	})
}

func ensureNameFree(tx *gorm.DB, name string, self uuid.UUID) error {
	var count int64
	q := tx.Model(&domain.Insurer{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrInsurerNameTaken
	}
	return nil
}

func createTables(tx *gorm.DB, insurerID uuid.UUID, tables []RateTableInput) error {
	for _, in := range tables {
		rt := in.RateTable
		rt.ID = uuid.Nil
		rt.InsurerID = insurerID
		rt.Active = in.Active == nil || *in.Active
		if err := tx.Create(&rt).Error; err != nil {
			return fmt.Errorf("Failed to save %s rate table: %w", rt.CoverageType, err)
		}
	}
	return nil
}
