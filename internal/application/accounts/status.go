package accounts

import (
	"time"

	"protegeya-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Transition is one step of the account state machine.
type Transition struct {
	From   domain.AccountStatus
	To     domain.AccountStatus
	Reason string
}

// Evaluation is the result of EvaluateStatus.
type Evaluation struct {
	Status         domain.AccountStatus
	GracePeriodEnd *time.Time
	Transitions    []Transition
}

// Changed reports whether any transition fired.
func (e Evaluation) Changed() bool {
	return len(e.Transitions) > 0
}

// EvaluateStatus derives the account status from its balance and dates. It is the single
// source of truth for the state machine; the stored status is a cache of its result.
//
// Suspended never changes here. A non-negative balance returns the account to Active.
// A negative balance past nextDue moves Active to Overdue and on to GracePeriod in the same
// pass, with the grace period ending window after nextDue. GracePeriod becomes Suspended
// once now is past the grace period end.
func EvaluateStatus(current domain.AccountStatus, balance decimal.Decimal, nextDue time.Time, graceEnd *time.Time, now time.Time, window time.Duration) Evaluation {
	ev := Evaluation{Status: current, GracePeriodEnd: graceEnd}
	step := func(to domain.AccountStatus, reason string) {
		ev.Transitions = append(ev.Transitions, Transition{From: ev.Status, To: to, Reason: reason})
		ev.Status = to
	}

	if current == domain.AccountSuspended {
		return ev
	}
	if !balance.IsNegative() {
		if current != domain.AccountActive {
			step(domain.AccountActive, "balance settled")
		}
		ev.GracePeriodEnd = nil
		return ev
	}

	if ev.Status == domain.AccountActive && now.After(nextDue) {
		step(domain.AccountOverdue, "negative balance past due date")
	}
	if ev.Status == domain.AccountOverdue {
		if ev.GracePeriodEnd == nil {
			end := nextDue.Add(window)
			ev.GracePeriodEnd = &end
		}
		step(domain.AccountGracePeriod, "grace period started")
	}
	if ev.Status == domain.AccountGracePeriod && ev.GracePeriodEnd != nil && now.After(*ev.GracePeriodEnd) {
		step(domain.AccountSuspended, "grace period expired with negative balance")
	}
	return ev
}
