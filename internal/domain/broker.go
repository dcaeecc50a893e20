package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "Active"
	SubscriptionInactive SubscriptionStatus = "Inactive"
	SubscriptionPastDue  SubscriptionStatus = "PastDue"
	SubscriptionCanceled SubscriptionStatus = "Canceled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionInactive, SubscriptionPastDue, SubscriptionCanceled:
		return true
	}
	return false
}

// Broker is a licensed broker receiving leads.
// CurrentMonthLeads counts assignments made during LeadsPeriod (YYYY-MM).
type Broker struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                 string             `gorm:"column:name;not null" json:"name"`
	Email                string             `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PhoneNumber          string             `gorm:"column:phone_number" json:"phone_number"`
	WhatsappNumber       string             `gorm:"column:whatsapp_number" json:"whatsapp_number"`
	CorretajeName        string             `gorm:"column:corretaje_name" json:"corretaje_name"`
	SubscriptionStatus   SubscriptionStatus `gorm:"column:subscription_status;type:varchar(20);not null;index" json:"subscription_status"`
	MonthlyLeadQuota     int                `gorm:"column:monthly_lead_quota;not null" json:"monthly_lead_quota"`
	CurrentMonthLeads    int                `gorm:"column:current_month_leads;not null;default:0" json:"current_month_leads"`
	LeadsPeriod          string             `gorm:"column:leads_period;type:varchar(7)" json:"leads_period"`
	CommissionPercentage decimal.Decimal    `gorm:"column:commission_percentage;type:numeric(5,2);not null;default:0" json:"commission_percentage"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

func (Broker) TableName() string {
	return "brokers"
}

func (b *Broker) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// HasQuota reports whether automatic assignment may give this broker another lead.
func (b Broker) HasQuota() bool {
	return b.CurrentMonthLeads < b.MonthlyLeadQuota
}

// PeriodKey formats the calendar month of t, the unit of lead quotas.
func PeriodKey(t time.Time) string {
	return t.Format("2006-01")
}
