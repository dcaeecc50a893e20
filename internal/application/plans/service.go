package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type Input struct {
	Name     string          `json:"name" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
	Period   string          `json:"period" validate:"omitempty,oneof=monthly"`
	Benefits []string        `json:"benefits" validate:"omitempty,dive,required"`
	Active   *bool           `json:"active"`
}

func (in *Input) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = domain.Currency
	}
	if in.Period == "" {
		in.Period = domain.PeriodMonthly
	}
	errs := validation.Errors{}
	if err := validation.Struct(in); err != nil {
		fields, ok := validation.AsErrors(err)
		if !ok {
			return err
		}
		errs = fields
	}
	if !in.Amount.IsPositive() {
		errs.Add("amount", "must be greater than 0")
	}
	return errs.OrNil()
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.SubscriptionPlan, error) {
	q := s.DB.WithContext(ctx).Order("amount, name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []domain.SubscriptionPlan
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch plans: %w", err)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.SubscriptionPlan, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	plan := &domain.SubscriptionPlan{
		Name:     in.Name,
		Amount:   in.Amount.Round(2),
		Currency: in.Currency,
		Period:   in.Period,
		Benefits: in.Benefits,
		Active:   in.Active == nil || *in.Active,
	}
	if err := s.DB.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, fmt.Errorf("Failed to create plan: %w", err)
	}
	return plan, nil
}

// Update changes a plan. Existing accounts are billed the new amount from their next period on.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*domain.SubscriptionPlan, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var plan domain.SubscriptionPlan
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, err
	}
	plan.Name, plan.Amount, plan.Currency, plan.Period, plan.Benefits = in.Name, in.Amount.Round(2), in.Currency, in.Period, in.Benefits
	if in.Active != nil {
		plan.Active = *in.Active
	}
	if err := s.DB.WithContext(ctx).Save(&plan).Error; err != nil {
		return nil, fmt.Errorf("Failed to update plan: %w", err)
	}
	return &plan, nil
}

// Delete removes a plan no account is subscribed to.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&domain.BrokerAccount{}).Where("subscription_plan_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return domain.ErrPlanInUse
		}
		res := tx.Where("id = ?", id).Delete(&domain.SubscriptionPlan{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrPlanNotFound
		}
		return nil
	})
}
