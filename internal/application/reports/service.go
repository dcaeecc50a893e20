package reports

import (
	"context"
	"fmt"
	"time"

	"protegeya-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// KPI summarizes lead flow and broker performance.
type KPI struct {
	TotalLeads      int64           `json:"total_leads"`
	AssignedLeads   int64           `json:"assigned_leads"`
	ActiveBrokers   int64           `json:"active_brokers"`
	AssignmentRate  decimal.Decimal `json:"assignment_rate"`
	ClosedWonLeads  int64           `json:"closed_won_leads"`
	ClosedWonAmount decimal.Decimal `json:"closed_won_amount"`
	SLAMeasured     int64           `json:"sla_measured"`
	SLACompliant    int64           `json:"sla_compliant"`
	SLACompliance   decimal.Decimal `json:"sla_compliance"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// Range restricts the report to leads created in [From, To). Zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// MonthRange is the calendar month in loc; month 0 selects the whole year.
func MonthRange(year, month int, loc *time.Location) Range {
	if loc == nil {
		loc = time.UTC
	}
	if month < 1 || month > 12 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return Range{From: start, To: start.AddDate(1, 0, 0)}
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return Range{From: start, To: start.AddDate(0, 1, 0)}
}

type leadRow struct {
	Status                  domain.LeadStatus
	BrokerStatus            domain.BrokerLeadStatus
	ClosedAmount            *decimal.Decimal
	SLAFirstContactDeadline *time.Time
	FirstContactedAt        *time.Time
}

// KPI computes the report. A lead counts for SLA once it was contacted or its deadline passed.
func (s *Service) KPI(ctx context.Context, r Range) (*KPI, error) {
	db := s.DB.WithContext(ctx)
	q := db.Model(&domain.Lead{}).
		Select("status, broker_status, closed_amount, sla_first_contact_deadline, first_contacted_at")
	if !r.From.IsZero() {
		q = q.Where("created_at >= ?", r.From.UTC())
	}
	if !r.To.IsZero() {
		q = q.Where("created_at < ?", r.To.UTC())
	}
	var rows []leadRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch leads: %w", err)
	}

	now := s.now()
	k := &KPI{ClosedWonAmount: decimal.Zero, GeneratedAt: now}
	for _, row := range rows {
		k.TotalLeads++
		if row.Status != domain.LeadAssignedToBroker {
			continue
		}
		k.AssignedLeads++
		if row.BrokerStatus == domain.BrokerLeadClosedWon {
			k.ClosedWonLeads++
			if row.ClosedAmount != nil {
				k.ClosedWonAmount = k.ClosedWonAmount.Add(*row.ClosedAmount)
			}
		}
		if row.SLAFirstContactDeadline == nil {
			continue
		}
		deadline := *row.SLAFirstContactDeadline
		switch {
		case row.FirstContactedAt != nil:
			k.SLAMeasured++
			if !row.FirstContactedAt.After(deadline) {
				k.SLACompliant++
			}
		case now.After(deadline):
			k.SLAMeasured++
		}
	}

	if err := db.Model(&domain.Broker{}).
		Where("subscription_status = ?", domain.SubscriptionActive).
		Count(&k.ActiveBrokers).Error; err != nil {
		return nil, fmt.Errorf("Failed to count brokers: %w", err)
	}

	k.AssignmentRate = percent(k.AssignedLeads, k.TotalLeads)
	k.SLACompliance = percent(k.SLACompliant, k.SLAMeasured)
	return k, nil
}

func percent(part, whole int64) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).Round(2)
}
