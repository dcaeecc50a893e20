package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AccountStatus string

const (
	AccountActive      AccountStatus = "Active"
	AccountOverdue     AccountStatus = "Overdue"
	AccountGracePeriod AccountStatus = "GracePeriod"
	AccountSuspended   AccountStatus = "Suspended"
)

type TransactionType string

const (
	TransactionCharge     TransactionType = "Charge"
	TransactionPayment    TransactionType = "Payment"
	TransactionAdjustment TransactionType = "Adjustment"
)

// BrokerAccount is the billing account of a broker with a subscription plan.
// CurrentBalance is negative while the broker owes money.
type BrokerAccount struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BrokerID              uuid.UUID       `gorm:"column:broker_id;type:uuid;not null;uniqueIndex" json:"broker_id"`
	SubscriptionPlanID    uuid.UUID       `gorm:"column:subscription_plan_id;type:uuid;not null;index" json:"subscription_plan_id"`
	AccountNumber         string          `gorm:"column:account_number;not null;uniqueIndex" json:"account_number"`
	CurrentBalance        decimal.Decimal `gorm:"column:current_balance;type:numeric(18,2);not null;default:0" json:"current_balance"`
	AccountStatus         AccountStatus   `gorm:"column:account_status;type:varchar(20);not null;index" json:"account_status"`
	SubscriptionStartDate time.Time       `gorm:"column:subscription_start_date;not null" json:"subscription_start_date"`
	BillingAnchor         time.Time       `gorm:"column:billing_anchor;not null" json:"billing_anchor"`
	PeriodsBilled         int             `gorm:"column:periods_billed;not null;default:0" json:"periods_billed"`
	NextDueDate           time.Time       `gorm:"column:next_due_date;not null" json:"next_due_date"`
	GracePeriodEnd        *time.Time      `gorm:"column:grace_period_end" json:"grace_period_end"`
	LastChargedPeriod     string          `gorm:"column:last_charged_period" json:"last_charged_period"`
	LastSequence          int64           `gorm:"column:last_sequence;not null;default:0" json:"-"`
	StatusChangedAt       *time.Time      `gorm:"column:status_changed_at" json:"status_changed_at"`
	Version               int64           `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (BrokerAccount) TableName() string {
	return "broker_accounts"
}

func (a *BrokerAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AccountTransaction is an append-only ledger entry. Charges are negative, payments positive.
// BalanceAfter equals the previous entry's BalanceAfter plus Amount.
type AccountTransaction struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AccountID       uuid.UUID       `gorm:"column:account_id;type:uuid;not null;uniqueIndex:idx_account_tx_sequence;uniqueIndex:idx_account_tx_period" json:"account_id"`
	Sequence        int64           `gorm:"column:sequence;not null;uniqueIndex:idx_account_tx_sequence" json:"sequence"`
	TransactionType TransactionType `gorm:"column:transaction_type;type:varchar(20);not null" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	BalanceAfter    decimal.Decimal `gorm:"column:balance_after;type:numeric(18,2);not null" json:"balance_after"`
	Description     string          `gorm:"column:description" json:"description"`
	ReferenceNumber string          `gorm:"column:reference_number" json:"reference_number"`
	BillingPeriod   *string         `gorm:"column:billing_period;uniqueIndex:idx_account_tx_period" json:"billing_period"`
	CreatedAt       time.Time       `gorm:"column:created_at;not null" json:"created_at"`
}

func (AccountTransaction) TableName() string {
	return "account_transactions"
}

func (t *AccountTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// AccountStatusChange records one state machine transition.
type AccountStatusChange struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	AccountID  uuid.UUID     `gorm:"column:account_id;type:uuid;not null;index" json:"account_id"`
	FromStatus AccountStatus `gorm:"column:from_status;type:varchar(20);not null" json:"from_status"`
	ToStatus   AccountStatus `gorm:"column:to_status;type:varchar(20);not null" json:"to_status"`
	Reason     string        `gorm:"column:reason" json:"reason"`
	ChangedAt  time.Time     `gorm:"column:changed_at;not null" json:"changed_at"`
}

func (AccountStatusChange) TableName() string {
	return "account_status_changes"
}

// Status change ids are UUIDv7 so that ordering by id follows insertion order.
func (c *AccountStatusChange) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		c.ID = id
	}
	return nil
}
