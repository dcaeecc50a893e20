package accounts

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
	"gorm.io/gorm/clause"
)

const defaultGracePeriod = 7 * 24 * time.Hour

// Service is the broker account ledger. Every mutation runs in one DB transaction that
// locks the account row, appends ledger entries with the next sequence number and
// persists the account with a version check.
type Service struct {
	DB          *gorm.DB
	Location    *time.Location
	GracePeriod time.Duration
	Now         func() time.Time
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return now.In(s.location())
}

func (s *Service) gracePeriod() time.Duration {
	if s.GracePeriod > 0 {
		return s.GracePeriod
	}
	return defaultGracePeriod
}

// AccountView is an account with the names the admin screens show next to it.
type AccountView struct {
	domain.BrokerAccount
	BrokerName string          `json:"broker_name"`
	PlanName   string          `json:"plan_name"`
	PlanAmount decimal.Decimal `json:"plan_amount"`
}

// AssignPlan opens the broker's account on planID and bills the first period immediately.
func (s *Service) AssignPlan(ctx context.Context, brokerID, planID uuid.UUID) (*domain.BrokerAccount, error) {
	var out *domain.BrokerAccount
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var broker domain.Broker
		if err := tx.Where("id = ?", brokerID).First(&broker).Error; err != nil {
			return notFound(err, domain.ErrBrokerNotFound)
		}
		plan, err := findPlan(tx, planID)
		if err != nil {
			return err
		}
		if !plan.Active {
			return domain.ErrPlanInactive
		}
		var existing int64
		if err := tx.Model(&domain.BrokerAccount{}).Where("broker_id = ?", brokerID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return domain.ErrAccountAlreadyExists
		}

		now := s.now()
		id := uuid.New()
		acct := &domain.BrokerAccount{
			ID:                    id,
			BrokerID:              brokerID,
			SubscriptionPlanID:    plan.ID,
			AccountNumber:         "PY-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:10]),
			CurrentBalance:        decimal.Zero,
			AccountStatus:         domain.AccountActive,
			SubscriptionStartDate: now,
			BillingAnchor:         now,
			NextDueDate:           now,
			StatusChangedAt:       &now,
		}
		if err := tx.Create(acct).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAccountAlreadyExists
			}
			return err
		}
		if _, err := s.chargePeriod(tx, acct, plan, now); err != nil {
			return err
		}
		if err := s.save(tx, acct, 0, now); err != nil {
			return err
		}
		if err := tx.Model(&domain.Broker{}).Where("id = ?", brokerID).
			Update("subscription_status", domain.SubscriptionActive).Error; err != nil {
			return err
		}
		log.Info().Str("broker_id", brokerID.String()).Str("account", acct.AccountNumber).Str("plan", plan.Name).Msg("subscription plan assigned")
		out = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type PaymentInput struct {
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number"`
	Description     string          `json:"description"`
}

// EntryResult is the account after a ledger write together with the entry appended.
type EntryResult struct {
	Account     *domain.BrokerAccount      `json:"account"`
	Transaction *domain.AccountTransaction `json:"transaction"`
}

// ApplyPayment appends a Payment and re-evaluates the status; a cleared balance returns an
// Overdue or GracePeriod account to Active. Suspended accounts stay suspended.
func (s *Service) ApplyPayment(ctx context.Context, brokerID uuid.UUID, in PaymentInput) (*EntryResult, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = "Pago recibido"
	}
	return s.appendAndEvaluate(ctx, brokerID, domain.TransactionPayment, in.Amount.Round(2), desc, strings.TrimSpace(in.ReferenceNumber))
}

type AdjustmentInput struct {
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason" validate:"required"`
	ReferenceNumber string          `json:"reference_number"`
}

// ApplyAdjustment corrects the balance with a signed entry; ledger rows are never edited.
func (s *Service) ApplyAdjustment(ctx context.Context, brokerID uuid.UUID, in AdjustmentInput) (*EntryResult, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Amount.IsZero() {
		return nil, validation.Errors{"amount": "must not be zero"}
	}
	return s.appendAndEvaluate(ctx, brokerID, domain.TransactionAdjustment, in.Amount.Round(2), in.Reason, strings.TrimSpace(in.ReferenceNumber))
}

func (s *Service) appendAndEvaluate(ctx context.Context, brokerID uuid.UUID, typ domain.TransactionType, amount decimal.Decimal, desc, ref string) (*EntryResult, error) {
	var out EntryResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := lockAccount(tx, "broker_id = ?", brokerID)
		if err != nil {
			return err
		}
		version := acct.Version
		now := s.now()
		entry, err := s.appendEntry(tx, acct, typ, amount, desc, ref, nil, now)
		if err != nil {
			return err
		}
		if _, _, err := s.evaluate(tx, acct, now); err != nil {
			return err
		}
		if err := s.save(tx, acct, version, now); err != nil {
			return err
		}
		out = EntryResult{Account: acct, Transaction: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChargeRun summarises one GenerateMonthlyCharges pass.
type ChargeRun struct {
	Charged        int      `json:"charged"`
	PeriodsCharged int      `json:"periods_charged"`
	NotDue         int      `json:"not_due"`
	BecameDue      int      `json:"status_changed"`
	Failed         int      `json:"failed"`
	ChargedIDs     []string `json:"charged_account_ids"`
	FailedIDs      []string `json:"failed_account_ids,omitempty"`
	GeneratedAt    string   `json:"generated_at"`
}

// GenerateMonthlyCharges bills every Active account whose next due date has arrived. A late
// run charges every elapsed period in one transaction, so the next due date always ends up
// after now. The status is re-evaluated before billing so an account in arrears moves to
// Overdue/GracePeriod instead of receiving a new charge. Running twice in the same period
// charges nothing the second time.
func (s *Service) GenerateMonthlyCharges(ctx context.Context) (*ChargeRun, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&domain.BrokerAccount{}).
		Where("account_status = ?", domain.AccountActive).Order("account_number").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("Failed to load accounts: %w", err)
	}
	run := &ChargeRun{ChargedIDs: []string{}}
	for _, id := range ids {
		outcome, periods, err := s.chargeAccount(ctx, id)
		switch {
		case err != nil:
			run.Failed++
			run.FailedIDs = append(run.FailedIDs, id.String())
			log.Error().Err(err).Str("account_id", id.String()).Msg("monthly charge failed")
		case outcome == chargeApplied:
			run.Charged++
			run.PeriodsCharged += periods
			run.ChargedIDs = append(run.ChargedIDs, id.String())
		case outcome == chargeStatusChanged:
			run.BecameDue++
		default:
			run.NotDue++
		}
	}
	run.GeneratedAt = s.now().Format(time.RFC3339)
	log.Info().Int("charged", run.Charged).Int("periods", run.PeriodsCharged).Int("status_changed", run.BecameDue).Int("failed", run.Failed).Msg("monthly charges generated")
	return run, nil
}

type chargeOutcome int

const (
	chargeSkipped chargeOutcome = iota
	chargeApplied
	chargeStatusChanged
)

func (s *Service) chargeAccount(ctx context.Context, id uuid.UUID) (chargeOutcome, int, error) {
	outcome := chargeSkipped
	periods := 0
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := lockAccount(tx, "id = ?", id)
		if err != nil {
			return err
		}
		now := s.now()
		if acct.AccountStatus != domain.AccountActive || now.Before(acct.NextDueDate) {
			return nil
		}
		version := acct.Version
		ev, _, err := s.evaluate(tx, acct, now)
		if err != nil {
			return err
		}
		if ev.Status != domain.AccountActive {
			outcome = chargeStatusChanged
			return s.save(tx, acct, version, now)
		}
		plan, err := findPlan(tx, acct.SubscriptionPlanID)
		if err != nil {
			return err
		}
		for !now.Before(acct.NextDueDate) {
			if _, err := s.chargePeriod(tx, acct, plan, now); err != nil {
				if errors.Is(err, domain.ErrDuplicateCharge) {
					break
				}
				return err
			}
			periods++
		}
		if periods == 0 {
			return nil
		}
		if periods > 1 {
			log.Warn().Str("account", acct.AccountNumber).Int("periods", periods).Msg("late billing run caught up elapsed periods")
		}
		outcome = chargeApplied
		return s.save(tx, acct, version, now)
	})
	if err != nil {
		return chargeSkipped, 0, err
	}
	return outcome, periods, nil
}

// StatusReport is one account whose status changed during CheckOverdueAccounts.
type StatusReport struct {
	AccountID     uuid.UUID                    `json:"account_id"`
	AccountNumber string                       `json:"account_number"`
	BrokerID      uuid.UUID                    `json:"broker_id"`
	Status        domain.AccountStatus         `json:"account_status"`
	Transitions   []domain.AccountStatusChange `json:"transitions"`
}

// OverdueRun summarises one CheckOverdueAccounts pass.
type OverdueRun struct {
	Evaluated int            `json:"evaluated"`
	Changed   []StatusReport `json:"changed"`
	Failed    int            `json:"failed"`
}

// CheckOverdueAccounts re-evaluates every account that is not suspended and records transitions.
func (s *Service) CheckOverdueAccounts(ctx context.Context) (*OverdueRun, error) {
	var ids []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&domain.BrokerAccount{}).
		Where("account_status <> ?", domain.AccountSuspended).Order("account_number").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("Failed to load accounts: %w", err)
	}
	run := &OverdueRun{Changed: []StatusReport{}}
	for _, id := range ids {
		var report *StatusReport
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			acct, err := lockAccount(tx, "id = ?", id)
			if err != nil {
				return err
			}
			version := acct.Version
			now := s.now()
			ev, records, err := s.evaluate(tx, acct, now)
			if err != nil {
				return err
			}
			if !ev.Changed() {
				return nil
			}
			report = &StatusReport{
				AccountID:     acct.ID,
				AccountNumber: acct.AccountNumber,
				BrokerID:      acct.BrokerID,
				Status:        ev.Status,
				Transitions:   records,
			}
			return s.save(tx, acct, version, now)
		})
		run.Evaluated++
		if err != nil {
			run.Failed++
			log.Error().Err(err).Str("account_id", id.String()).Msg("overdue check failed")
			continue
		}
		if report != nil {
			run.Changed = append(run.Changed, *report)
		}
	}
	log.Info().Int("evaluated", run.Evaluated).Int("changed", len(run.Changed)).Int("failed", run.Failed).Msg("overdue accounts checked")
	return run, nil
}

// Reactivate is the admin action that lifts a suspension once the balance is settled.
// Billing restarts from now with an immediate charge for the new period.
func (s *Service) Reactivate(ctx context.Context, brokerID uuid.UUID) (*domain.BrokerAccount, error) {
	var out *domain.BrokerAccount
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct, err := lockAccount(tx, "broker_id = ?", brokerID)
		if err != nil {
			return err
		}
		if acct.AccountStatus != domain.AccountSuspended {
			return domain.ErrAccountNotSuspended
		}
		if acct.CurrentBalance.IsNegative() {
			return domain.ErrOutstandingBalance
		}
		version := acct.Version
		now := s.now()
		if _, err := s.recordTransitions(tx, acct, []Transition{{
			From: acct.AccountStatus, To: domain.AccountActive, Reason: "reactivated by administrator",
		}}, now); err != nil {
			return err
		}
		acct.AccountStatus = domain.AccountActive
		acct.GracePeriodEnd = nil
		acct.StatusChangedAt = &now
		acct.BillingAnchor = now
		acct.PeriodsBilled = 0
		plan, err := findPlan(tx, acct.SubscriptionPlanID)
		if err != nil {
			return err
		}
		if _, err := s.chargePeriod(tx, acct, plan, now); err != nil {
			return err
		}
		if err := s.save(tx, acct, version, now); err != nil {
			return err
		}
		if err := syncBroker(tx, acct.BrokerID, domain.AccountActive); err != nil {
			return err
		}
		out = acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]AccountView, error) {
	var out []AccountView
	err := s.DB.WithContext(ctx).Table("broker_accounts").
		Select("broker_accounts.*, brokers.name AS broker_name, subscription_plans.name AS plan_name, subscription_plans.amount AS plan_amount").
		Joins("LEFT JOIN brokers ON brokers.id = broker_accounts.broker_id").
		Joins("LEFT JOIN subscription_plans ON subscription_plans.id = broker_accounts.subscription_plan_id").
		Order("broker_accounts.account_number").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch accounts: %w", err)
	}
	return out, nil
}

func (s *Service) GetAccount(ctx context.Context, brokerID uuid.UUID) (*domain.BrokerAccount, error) {
	var acct domain.BrokerAccount
	if err := s.DB.WithContext(ctx).Where("broker_id = ?", brokerID).First(&acct).Error; err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return &acct, nil
}

// ListTransactions returns the ledger of accountID in sequence order.
func (s *Service) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]domain.AccountTransaction, error) {
	db := s.DB.WithContext(ctx)
	var count int64
	if err := db.Model(&domain.BrokerAccount{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrAccountNotFound
	}
	var out []domain.AccountTransaction
	if err := db.Where("account_id = ?", accountID).Order("sequence").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch transactions: %w", err)
	}
	return out, nil
}

// StatusHistory returns the recorded transitions of accountID, oldest first.
func (s *Service) StatusHistory(ctx context.Context, accountID uuid.UUID) ([]domain.AccountStatusChange, error) {
	var out []domain.AccountStatusChange
	if err := s.DB.WithContext(ctx).Where("account_id = ?", accountID).Order("changed_at, id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// chargePeriod appends the Charge of the account's next unbilled period and advances the due date.
func (s *Service) chargePeriod(tx *gorm.DB, acct *domain.BrokerAccount, plan *domain.SubscriptionPlan, now time.Time) (*domain.AccountTransaction, error) {
	anchor := acct.BillingAnchor.In(s.location())
	label := periodLabel(anchor, acct.PeriodsBilled)
	var dup int64
	if err := tx.Model(&domain.AccountTransaction{}).Where("account_id = ? AND billing_period = ?", acct.ID, label).Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, domain.ErrDuplicateCharge
	}
	desc := fmt.Sprintf("Cargo mensual %s (%s)", plan.Name, label)
	entry, err := s.appendEntry(tx, acct, domain.TransactionCharge, plan.Amount.Neg(), desc, "", &label, now)
	if err != nil {
		return nil, err
	}
	acct.PeriodsBilled++
	acct.NextDueDate = periodStart(anchor, acct.PeriodsBilled)
	acct.LastChargedPeriod = label
	return entry, nil
}

// appendEntry writes the next ledger row. BalanceAfter is derived from the locked account
// balance, so entries form a running total in sequence order.
func (s *Service) appendEntry(tx *gorm.DB, acct *domain.BrokerAccount, typ domain.TransactionType, amount decimal.Decimal, desc, ref string, period *string, now time.Time) (*domain.AccountTransaction, error) {
	acct.LastSequence++
	acct.CurrentBalance = acct.CurrentBalance.Add(amount)
	entry := &domain.AccountTransaction{
		AccountID:       acct.ID,
		Sequence:        acct.LastSequence,
		TransactionType: typ,
		Amount:          amount,
		BalanceAfter:    acct.CurrentBalance,
		Description:     desc,
		ReferenceNumber: ref,
		BillingPeriod:   period,
		CreatedAt:       now,
	}
	if err := tx.Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("Failed to append %s: %w", typ, err)
	}
	return entry, nil
}

// evaluate runs the state machine on acct, records transitions and keeps the broker in sync.
func (s *Service) evaluate(tx *gorm.DB, acct *domain.BrokerAccount, now time.Time) (Evaluation, []domain.AccountStatusChange, error) {
	ev := EvaluateStatus(acct.AccountStatus, acct.CurrentBalance, acct.NextDueDate, acct.GracePeriodEnd, now, s.gracePeriod())
	acct.GracePeriodEnd = ev.GracePeriodEnd
	if !ev.Changed() {
		return ev, nil, nil
	}
	records, err := s.recordTransitions(tx, acct, ev.Transitions, now)
	if err != nil {
		return ev, nil, err
	}
	acct.AccountStatus = ev.Status
	acct.StatusChangedAt = &now
	if err := syncBroker(tx, acct.BrokerID, ev.Status); err != nil {
		return ev, nil, err
	}
	return ev, records, nil
}

func (s *Service) recordTransitions(tx *gorm.DB, acct *domain.BrokerAccount, transitions []Transition, now time.Time) ([]domain.AccountStatusChange, error) {
	records := make([]domain.AccountStatusChange, 0, len(transitions))
	for _, t := range transitions {
		rec := domain.AccountStatusChange{AccountID: acct.ID, FromStatus: t.From, ToStatus: t.To, Reason: t.Reason, ChangedAt: now}
		if err := tx.Create(&rec).Error; err != nil {
			return nil, err
		}
		log.Info().Str("account", acct.AccountNumber).Str("from", string(t.From)).Str("to", string(t.To)).Str("reason", t.Reason).Msg("account status changed")
		records = append(records, rec)
	}
	return records, nil
}

// syncBroker keeps the broker's subscription status aligned with its account:
// a suspended account drops the broker out of lead rotation, recovery brings it back.
func syncBroker(tx *gorm.DB, brokerID uuid.UUID, status domain.AccountStatus) error {
	switch status {
	case domain.AccountSuspended:
		return tx.Model(&domain.Broker{}).Where("id = ?", brokerID).
			Update("subscription_status", domain.SubscriptionPastDue).Error
	case domain.AccountActive:
		return tx.Model(&domain.Broker{}).Where("id = ? AND subscription_status = ?", brokerID, domain.SubscriptionPastDue).
			Update("subscription_status", domain.SubscriptionActive).Error
	}
	return nil
}

// save persists acct if its version is still the one read under lock.
func (s *Service) save(tx *gorm.DB, acct *domain.BrokerAccount, version int64, now time.Time) error {
	var graceEnd interface{}
	if acct.GracePeriodEnd != nil {
		graceEnd = *acct.GracePeriodEnd
	}
	var statusChangedAt interface{}
	if acct.StatusChangedAt != nil {
		statusChangedAt = *acct.StatusChangedAt
	}
	res := tx.Model(&domain.BrokerAccount{}).Where("id = ? AND version = ?", acct.ID, version).Updates(map[string]interface{}{
		"current_balance":     acct.CurrentBalance,
		"account_status":      acct.AccountStatus,
		"billing_anchor":      acct.BillingAnchor,
		"periods_billed":      acct.PeriodsBilled,
		"next_due_date":       acct.NextDueDate,
		"grace_period_end":    graceEnd,
		"last_charged_period": acct.LastChargedPeriod,
		"last_sequence":       acct.LastSequence,
		"status_changed_at":   statusChangedAt,
		"version":             version + 1,
		"updated_at":          now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	acct.Version = version + 1
	return nil
}

func lockAccount(tx *gorm.DB, query string, arg interface{}) (*domain.BrokerAccount, error) {
	var acct domain.BrokerAccount
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, arg).First(&acct).Error; err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}
	return &acct, nil
}

func findPlan(tx *gorm.DB, id uuid.UUID) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	if err := tx.Where("id = ?", id).First(&plan).Error; err != nil {
		return nil, notFound(err, domain.ErrPlanNotFound)
	}
	return &plan, nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
