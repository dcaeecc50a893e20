package leads

import (
	"context"
	"errors"

	"protegeya-backend/internal/application/brokers"
	"protegeya-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssignManual gives the lead to brokerID regardless of quota. A broker whose
// subscription is not Active is refused with ErrBrokerInactive unless force is set.
// An already assigned lead is reassigned.
func (s *Service) AssignManual(ctx context.Context, leadID, brokerID uuid.UUID, force bool) (*domain.Lead, error) {
	return s.assign(ctx, leadID, &brokerID, force)
}

// AssignAuto gives the lead to the next eligible broker in round-robin order.
// With no eligible broker it fails with ErrNoEligibleBrokers and leaves the lead untouched.
func (s *Service) AssignAuto(ctx context.Context, leadID uuid.UUID) (*domain.Lead, error) {
	return s.assign(ctx, leadID, nil, false)
}

// Reassign moves the lead to brokerID, or to the next eligible broker other than the
// current one when brokerID is nil. The previous broker's counter is given back.
func (s *Service) Reassign(ctx context.Context, leadID uuid.UUID, brokerID *uuid.UUID, force bool) (*domain.Lead, error) {
	return s.assign(ctx, leadID, brokerID, force)
}

func (s *Service) assign(ctx context.Context, leadID uuid.UUID, brokerID *uuid.UUID, force bool) (*domain.Lead, error) {
	var out *domain.Lead
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := lockLead(tx, leadID)
		if err != nil {
			return err
		}
		if lead.BrokerStatus.Terminal() {
			return domain.ErrLeadClosed
		}
		previous := lead.AssignedBrokerID
		if brokerID != nil && previous != nil && *previous == *brokerID {
			out = lead
			return nil
		}

		var chosen uuid.UUID
		if brokerID != nil {
			chosen, err = s.takeManual(tx, *brokerID, force)
		} else {
			chosen, err = s.takeNext(tx, previous)
		}
		if err != nil {
			return err
		}

		if previous != nil && s.assignedThisPeriod(lead) {
			if err := brokers.DecrementQuota(tx, *previous); err != nil {
				return err
			}
		}

		now := s.now()
		firstContact := now.Add(s.slaFirstContact())
		reassignBy := now.Add(s.slaReassignment())
		if err := s.casLead(tx, lead, map[string]interface{}{
			"status":                     domain.LeadAssignedToBroker,
			"assigned_broker_id":         chosen,
			"assigned_at":                now,
			"sla_first_contact_deadline": firstContact,
			"sla_reassignment_deadline":  reassignBy,
			"first_contacted_at":         nil,
			"broker_status":              domain.BrokerLeadNew,
			"closed_amount":              nil,
		}); err != nil {
			return err
		}

		ev := log.Info().Str("lead_id", lead.ID.String()).Str("broker_id", chosen.String()).Bool("auto", brokerID == nil)
		if previous != nil {
			ev = ev.Str("previous_broker_id", previous.String())
		}
		ev.Msg("lead assigned")

		out, err = findLead(tx, leadID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) takeManual(tx *gorm.DB, brokerID uuid.UUID, force bool) (uuid.UUID, error) {
	if _, err := s.Brokers.RolloverLeadCounters(tx); err != nil {
		return uuid.Nil, err
	}
	b, err := brokers.Find(tx, brokerID)
	if err != nil {
		return uuid.Nil, err
	}
	if b.SubscriptionStatus != domain.SubscriptionActive && !force {
		return uuid.Nil, domain.ErrBrokerInactive
	}
	if _, err := brokers.IncrementQuota(tx, b.ID, false); err != nil {
		return uuid.Nil, err
	}
	return b.ID, nil
}

// takeNext walks the rotation after the cursor and claims the first broker whose quota
// increment succeeds, then advances the cursor to it.
func (s *Service) takeNext(tx *gorm.DB, exclude *uuid.UUID) (uuid.UUID, error) {
	pool, err := s.Brokers.EligiblePool(tx)
	if err != nil {
		return uuid.Nil, err
	}
	pool = without(pool, exclude)
	if len(pool) == 0 {
		return uuid.Nil, domain.ErrNoEligibleBrokers
	}
	cursor, err := loadCursor(tx)
	if err != nil {
		return uuid.Nil, err
	}
	for _, candidate := range Rotation(pool, cursor.LastBrokerID) {
		ok, err := brokers.IncrementQuota(tx, candidate.ID, true)
		if err != nil {
			return uuid.Nil, err
		}
		if !ok {
			continue
		}
		if err := advanceCursor(tx, cursor, candidate.ID); err != nil {
			return uuid.Nil, err
		}
		return candidate.ID, nil
	}
	return uuid.Nil, domain.ErrNoEligibleBrokers
}

func loadCursor(tx *gorm.DB) (*domain.AssignmentCursor, error) {
	cursor := domain.AssignmentCursor{Name: domain.LeadRotationCursor}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&cursor).Error; err != nil {
		return nil, err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", domain.LeadRotationCursor).First(&cursor).Error; err != nil {
		return nil, err
	}
	return &cursor, nil
}

func advanceCursor(tx *gorm.DB, cursor *domain.AssignmentCursor, brokerID uuid.UUID) error {
	res := tx.Model(&domain.AssignmentCursor{}).
		Where("name = ? AND version = ?", cursor.Name, cursor.Version).
		Updates(map[string]interface{}{"last_broker_id": brokerID, "version": cursor.Version + 1})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

// casLead applies updates only if nobody changed the lead since it was read.
func (s *Service) casLead(tx *gorm.DB, lead *domain.Lead, updates map[string]interface{}) error {
	updates["version"] = lead.Version + 1
	updates["updated_at"] = s.now()
	res := tx.Model(&domain.Lead{}).Where("id = ? AND version = ?", lead.ID, lead.Version).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func lockLead(tx *gorm.DB, id uuid.UUID) (*domain.Lead, error) {
	return findLead(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func findLead(tx *gorm.DB, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	if err := tx.Where("id = ?", id).First(&lead).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}
