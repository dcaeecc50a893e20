package accounts

import (
	"testing"
	"time"

	"protegeya-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const week = 7 * 24 * time.Hour

func statuses(ev Evaluation) []domain.AccountStatus {
	out := []domain.AccountStatus{}
	for _, t := range ev.Transitions {
		out = append(out, t.To)
	}
	return out
}

func TestEvaluateStatus_OverdueEntersGraceInOnePass(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	due := now.Add(-24 * time.Hour)

	ev := EvaluateStatus(domain.AccountActive, decimal.NewFromInt(-500), due, nil, now, week)

	assert.Equal(t, domain.AccountGracePeriod, ev.Status)
	assert.Equal(t, []domain.AccountStatus{domain.AccountOverdue, domain.AccountGracePeriod}, statuses(ev))
	assert.Equal(t, domain.AccountActive, ev.Transitions[0].From)
	require.NotNil(t, ev.GracePeriodEnd)
	assert.True(t, ev.GracePeriodEnd.Equal(due.Add(week)))
}

func TestEvaluateStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	past := now.Add(-30 * 24 * time.Hour)
	future := now.Add(24 * time.Hour)
	graceOver := now.Add(-time.Hour)
	graceOpen := now.Add(time.Hour)
	neg := decimal.NewFromInt(-300)

	cases := []struct {
		name     string
		current  domain.AccountStatus
		balance  decimal.Decimal
		due      time.Time
		grace    *time.Time
		want     domain.AccountStatus
		path     []domain.AccountStatus
		graceNil bool
	}{
		{"active not yet due", domain.AccountActive, neg, future, nil, domain.AccountActive, []domain.AccountStatus{}, true},
		{"active with credit past due", domain.AccountActive, decimal.NewFromInt(10), past, nil, domain.AccountActive, []domain.AccountStatus{}, true},
		{"long overdue goes straight to suspended", domain.AccountActive, neg, past, nil, domain.AccountSuspended,
			[]domain.AccountStatus{domain.AccountOverdue, domain.AccountGracePeriod, domain.AccountSuspended}, false},
		{"overdue enters grace", domain.AccountOverdue, neg, now.Add(-time.Hour), nil, domain.AccountGracePeriod,
			[]domain.AccountStatus{domain.AccountGracePeriod}, false},
		{"grace still open", domain.AccountGracePeriod, neg, past, &graceOpen, domain.AccountGracePeriod, []domain.AccountStatus{}, false},
		{"grace expired", domain.AccountGracePeriod, neg, past, &graceOver, domain.AccountSuspended,
			[]domain.AccountStatus{domain.AccountSuspended}, false},
		{"grace paid off", domain.AccountGracePeriod, decimal.Zero, past, &graceOpen, domain.AccountActive,
			[]domain.AccountStatus{domain.AccountActive}, true},
		{"suspended is sticky", domain.AccountSuspended, decimal.NewFromInt(100), past, &graceOver, domain.AccountSuspended, []domain.AccountStatus{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := EvaluateStatus(tc.current, tc.balance, tc.due, tc.grace, now, week)
			assert.Equal(t, tc.want, ev.Status)
			assert.Equal(t, tc.path, statuses(ev))
			assert.Equal(t, tc.graceNil, ev.GracePeriodEnd == nil)
		})
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 30, 0, 0, time.UTC), periodStart(anchor, 1))
	assert.Equal(t, time.Date(2025, 3, 31, 10, 30, 0, 0, time.UTC), periodStart(anchor, 2))
	assert.Equal(t, time.Date(2026, 1, 31, 10, 30, 0, 0, time.UTC), periodStart(anchor, 12))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), addMonths(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, "2025-04-30", periodLabel(anchor, 3))
}
