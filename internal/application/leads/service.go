package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"protegeya-backend/internal/application/brokers"
	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultSLAFirstContact = 2 * time.Hour
	defaultSLAReassignment = 4 * time.Hour
)

type Service struct {
	DB              *gorm.DB
	Brokers         *brokers.Service
	SLAFirstContact time.Duration
	SLAReassignment time.Duration
	Now             func() time.Time
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Brokers != nil && s.Brokers.Location != nil {
		now = now.In(s.Brokers.Location)
	}
	return now
}

func (s *Service) location() *time.Location {
	if s.Brokers != nil && s.Brokers.Location != nil {
		return s.Brokers.Location
	}
	return time.UTC
}

func (s *Service) slaFirstContact() time.Duration {
	if s.SLAFirstContact > 0 {
		return s.SLAFirstContact
	}
	return defaultSLAFirstContact
}

func (s *Service) slaReassignment() time.Duration {
	if s.SLAReassignment > 0 {
		return s.SLAReassignment
	}
	return defaultSLAReassignment
}

// assignedThisPeriod reports whether the lead's assignment counted against the current month's quota.
func (s *Service) assignedThisPeriod(lead *domain.Lead) bool {
	return lead.AssignedAt != nil && domain.PeriodKey(lead.AssignedAt.In(s.location())) == domain.PeriodKey(s.now())
}

type CreateInput struct {
	Name               string           `json:"name" validate:"required"`
	PhoneNumber        string           `json:"phone_number" validate:"required"`
	Email              string           `json:"email" validate:"omitempty,email"`
	Municipality       string           `json:"municipality"`
	VehicleMake        string           `json:"vehicle_make"`
	VehicleModel       string           `json:"vehicle_model"`
	VehicleYear        int              `json:"vehicle_year" validate:"omitempty,gte=1950,lte=2100"`
	VehicleValue       decimal.Decimal  `json:"vehicle_value"`
	SelectedInsurer    string           `json:"selected_insurer"`
	SelectedQuotePrice *decimal.Decimal `json:"selected_quote_price"`
}

func (in CreateInput) vehicleComplete() bool {
	return strings.TrimSpace(in.VehicleMake) != "" && strings.TrimSpace(in.VehicleModel) != "" &&
		in.VehicleYear > 0 && in.VehicleValue.IsPositive()
}

// Create registers a lead. It stays PendingData until the vehicle is fully described.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Lead, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.VehicleValue.IsNegative() {
		return nil, validation.Errors{"vehicle_value": "must not be negative"}
	}
	status := domain.LeadPendingData
	if in.vehicleComplete() {
		status = domain.LeadQuotedNoPreference
	}
	lead := &domain.Lead{
		Name:               in.Name,
		PhoneNumber:        in.PhoneNumber,
		Email:              strings.TrimSpace(in.Email),
		Municipality:       in.Municipality,
		VehicleMake:        strings.TrimSpace(in.VehicleMake),
		VehicleModel:       strings.TrimSpace(in.VehicleModel),
		VehicleYear:        in.VehicleYear,
		VehicleValue:       in.VehicleValue,
		SelectedInsurer:    in.SelectedInsurer,
		SelectedQuotePrice: in.SelectedQuotePrice,
		Status:             status,
		BrokerStatus:       domain.BrokerLeadNew,
		CreatedAt:          s.now(),
	}
	if err := s.DB.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, fmt.Errorf("Failed to create lead: %w", err)
	}
	return lead, nil
}

type ListFilter struct {
	BrokerID     *uuid.UUID
	Status       domain.LeadStatus
	BrokerStatus domain.BrokerLeadStatus
	Month        int // 1-12, requires Year
	Year         int
}

// List returns leads newest first. Month and year are calendar periods in the service timezone.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Lead, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if f.BrokerID != nil {
		q = q.Where("assigned_broker_id = ?", *f.BrokerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BrokerStatus != "" {
		q = q.Where("broker_status = ?", f.BrokerStatus)
	}
	if f.Year > 0 {
		start := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, s.location())
		end := start.AddDate(1, 0, 0)
		if f.Month >= 1 && f.Month <= 12 {
			start = time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, s.location())
			end = start.AddDate(0, 1, 0)
		}
		q = q.Where("created_at >= ? AND created_at < ?", start.UTC(), end.UTC())
	}
	var out []domain.Lead
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch leads: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	return findLead(s.DB.WithContext(ctx), id)
}

// Delete removes a lead and gives its slot back to the broker if it was assigned this month.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.deleteLead(tx, id)
	})
}

// BulkDelete removes every listed lead that exists and returns how many were deleted.
func (s *Service) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, validation.Errors{"lead_ids": "at least one id is required"}
	}
	deleted := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			err := s.deleteLead(tx, id)
			if errors.Is(err, domain.ErrLeadNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *Service) deleteLead(tx *gorm.DB, id uuid.UUID) error {
	lead, err := lockLead(tx, id)
	if err != nil {
		return err
	}
	if lead.AssignedBrokerID != nil && s.assignedThisPeriod(lead) {
		if _, err := s.Brokers.RolloverLeadCounters(tx); err != nil {
			return err
		}
		if err := brokers.DecrementQuota(tx, *lead.AssignedBrokerID); err != nil {
			return err
		}
	}
	return tx.Where("id = ?", id).Delete(&domain.Lead{}).Error
}

type StatusInput struct {
	BrokerStatus domain.BrokerLeadStatus `json:"broker_status" validate:"required,oneof=New Contacted Interested Negotiation NotInterested ClosedWon ClosedLost"`
	Notes        *string                 `json:"notes"`
	ClosedAmount *decimal.Decimal        `json:"closed_amount"`
}

// UpdateBrokerStatus records the broker's progress on an assigned lead.
// ClosedWon and ClosedLost are final; closed_amount is only accepted with ClosedWon.
func (s *Service) UpdateBrokerStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*domain.Lead, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.ClosedAmount != nil {
		if in.BrokerStatus != domain.BrokerLeadClosedWon {
			return nil, validation.Errors{"closed_amount": "only allowed with ClosedWon"}
		}
		if in.ClosedAmount.IsNegative() {
			return nil, validation.Errors{"closed_amount": "must not be negative"}
		}
	}
	var out *domain.Lead
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := lockLead(tx, id)
		if err != nil {
			return err
		}
		if lead.Status != domain.LeadAssignedToBroker || lead.AssignedBrokerID == nil {
			return domain.ErrLeadNotAssigned
		}
		if lead.BrokerStatus.Terminal() {
			return domain.ErrLeadClosed
		}
		updates := map[string]interface{}{"broker_status": in.BrokerStatus}
		if in.Notes != nil {
			updates["broker_notes"] = *in.Notes
		}
		if in.BrokerStatus == domain.BrokerLeadClosedWon && in.ClosedAmount != nil {
			updates["closed_amount"] = *in.ClosedAmount
		}
		if lead.FirstContactedAt == nil && in.BrokerStatus != domain.BrokerLeadNew {
			updates["first_contacted_at"] = s.now()
		}
		if err := s.casLead(tx, lead, updates); err != nil {
			return err
		}
		out, err = findLead(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
