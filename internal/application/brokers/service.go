package brokers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return now
}

// CurrentPeriod is the lead-quota month for the service's timezone.
func (s *Service) CurrentPeriod() string {
	return domain.PeriodKey(s.now())
}

type CreateInput struct {
	Name                 string                    `json:"name" validate:"required"`
	Email                string                    `json:"email" validate:"required,email"`
	PhoneNumber          string                    `json:"phone_number" validate:"required"`
	WhatsappNumber       string                    `json:"whatsapp_number"`
	CorretajeName        string                    `json:"corretaje_name"`
	SubscriptionStatus   domain.SubscriptionStatus `json:"subscription_status" validate:"omitempty,oneof=Active Inactive PastDue Canceled"`
	MonthlyLeadQuota     int                       `json:"monthly_lead_quota" validate:"gte=0"`
	CommissionPercentage decimal.Decimal           `json:"commission_percentage"`
}

// UpdateInput carries the fields to change; nil fields are left untouched.
type UpdateInput struct {
	Name                 *string                    `json:"name" validate:"omitempty,min=1"`
	Email                *string                    `json:"email" validate:"omitempty,email"`
	PhoneNumber          *string                    `json:"phone_number"`
	WhatsappNumber       *string                    `json:"whatsapp_number"`
	CorretajeName        *string                    `json:"corretaje_name"`
	SubscriptionStatus   *domain.SubscriptionStatus `json:"subscription_status" validate:"omitempty,oneof=Active Inactive PastDue Canceled"`
	MonthlyLeadQuota     *int                       `json:"monthly_lead_quota" validate:"omitempty,gte=0"`
	CommissionPercentage *decimal.Decimal           `json:"commission_percentage"`
}

var maxCommission = decimal.NewFromInt(100)

func validateCommission(d *decimal.Decimal) error {
	if d != nil && (d.IsNegative() || d.GreaterThan(maxCommission)) {
		return validation.Errors{"commission_percentage": "must be between 0 and 100"}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Broker, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validateCommission(&in.CommissionPercentage); err != nil {
		return nil, err
	}
	if in.SubscriptionStatus == "" {
		in.SubscriptionStatus = domain.SubscriptionActive
	}
	broker := &domain.Broker{
		Name:                 in.Name,
		Email:                in.Email,
		PhoneNumber:          in.PhoneNumber,
		WhatsappNumber:       in.WhatsappNumber,
		CorretajeName:        in.CorretajeName,
		SubscriptionStatus:   in.SubscriptionStatus,
		MonthlyLeadQuota:     in.MonthlyLeadQuota,
		LeadsPeriod:          s.CurrentPeriod(),
		CommissionPercentage: in.CommissionPercentage,
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, broker.Email, uuid.Nil); err != nil {
			return err
		}
		return tx.Create(broker).Error
	})
	if err != nil {
		return nil, err
	}
	return broker, nil
}

type ListFilter struct {
	Status domain.SubscriptionStatus
}

// List returns brokers with counters rolled over to the current month.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Broker, error) {
	if _, err := s.RolloverLeadCounters(s.DB.WithContext(ctx)); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Order("name")
	if f.Status != "" {
		q = q.Where("subscription_status = ?", f.Status)
	}
	var out []domain.Broker
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch brokers: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Broker, error) {
	if _, err := s.RolloverLeadCounters(s.DB.WithContext(ctx)); err != nil {
		return nil, err
	}
	return Find(s.DB.WithContext(ctx), id)
}

// Find loads a broker inside an existing transaction.
func Find(tx *gorm.DB, id uuid.UUID) (*domain.Broker, error) {
	var b domain.Broker
	if err := tx.Where("id = ?", id).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBrokerNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Broker, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := validateCommission(in.CommissionPercentage); err != nil {
		return nil, err
	}
	var out *domain.Broker
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := Find(tx, id)
		if err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*in.Email))
			if err := ensureEmailFree(tx, email, id); err != nil {
				return err
			}
			updates["email"] = email
		}
		if in.PhoneNumber != nil {
			updates["phone_number"] = *in.PhoneNumber
		}
		if in.WhatsappNumber != nil {
			updates["whatsapp_number"] = *in.WhatsappNumber
		}
		if in.CorretajeName != nil {
			updates["corretaje_name"] = *in.CorretajeName
		}
		if in.SubscriptionStatus != nil {
			updates["subscription_status"] = *in.SubscriptionStatus
		}
		if in.MonthlyLeadQuota != nil {
			updates["monthly_lead_quota"] = *in.MonthlyLeadQuota
		}
		if in.CommissionPercentage != nil {
			updates["commission_percentage"] = *in.CommissionPercentage
		}
		if len(updates) > 0 {
			if err := tx.Model(b).Updates(updates).Error; err != nil {
				return err
			}
		}
		out, err = Find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateSubscriptionStatus is the admin toggle of a broker's subscription.
func (s *Service) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) (*domain.Broker, error) {
	if !status.Valid() {
		return nil, validation.Errors{"status": "must be one of: Active Inactive PastDue Canceled"}
	}
	return s.Update(ctx, id, UpdateInput{SubscriptionStatus: &status})
}

// Delete removes a broker that has no assigned leads.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := Find(tx, id); err != nil {
			return err
		}
		var assigned int64
		if err := tx.Model(&domain.Lead{}).Where("assigned_broker_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return domain.ErrBrokerHasLeads
		}
		return tx.Where("id = ?", id).Delete(&domain.Broker{}).Error
	})
}

// RolloverLeadCounters zeroes counters recorded for an earlier month. Safe to call repeatedly.
func (s *Service) RolloverLeadCounters(tx *gorm.DB) (int64, error) {
	period := s.CurrentPeriod()
	res := tx.Model(&domain.Broker{}).
		Where("leads_period <> ? OR leads_period IS NULL", period).
		Updates(map[string]interface{}{"current_month_leads": 0, "leads_period": period})
	if res.Error != nil {
		return 0, fmt.Errorf("Failed to roll over lead counters: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ResetMonthlyLeadCounters is the start-of-month job. Counters already reset for this month stay untouched.
func (s *Service) ResetMonthlyLeadCounters(ctx context.Context) (int64, error) {
	n, err := s.RolloverLeadCounters(s.DB.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	log.Info().Str("period", s.CurrentPeriod()).Int64("brokers", n).Msg("monthly lead counters reset")
	return n, nil
}

// EligiblePool lists Active brokers with quota left this month, ordered by id.
func (s *Service) EligiblePool(tx *gorm.DB) ([]domain.Broker, error) {
	if _, err := s.RolloverLeadCounters(tx); err != nil {
		return nil, err
	}
	var pool []domain.Broker
	err := tx.Where("subscription_status = ? AND current_month_leads < monthly_lead_quota", domain.SubscriptionActive).
		Order("id").
		Find(&pool).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to load eligible brokers: %w", err)
	}
	return pool, nil
}

// IncrementQuota takes one slot of the broker's quota unless it is exhausted.
// The conditional update is the compare-and-swap; false means another writer took the last slot.
func IncrementQuota(tx *gorm.DB, id uuid.UUID, enforceQuota bool) (bool, error) {
	q := tx.Model(&domain.Broker{}).Where("id = ?", id)
	if enforceQuota {
		q = q.Where("current_month_leads < monthly_lead_quota")
	}
	res := q.UpdateColumn("current_month_leads", gorm.Expr("current_month_leads + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecrementQuota gives back one slot, never going below zero.
func DecrementQuota(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&domain.Broker{}).
		Where("id = ? AND current_month_leads > 0", id).
		UpdateColumn("current_month_leads", gorm.Expr("current_month_leads - 1")).Error
}

func ensureEmailFree(tx *gorm.DB, email string, self uuid.UUID) error {
	var count int64
	q := tx.Model(&domain.Broker{}).Where("email = ?", email)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrBrokerEmailTaken
	}
	return nil
}
