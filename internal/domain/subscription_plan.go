package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const PeriodMonthly = "monthly"

type SubscriptionPlan struct {
	ID        uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string                      `gorm:"column:name;not null" json:"name"`
	Amount    decimal.Decimal             `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Currency  string                      `gorm:"column:currency;type:char(3);not null" json:"currency"`
	Period    string                      `gorm:"column:period;type:varchar(20);not null" json:"period"`
	Benefits  datatypes.JSONSlice[string] `gorm:"column:benefits" json:"benefits"`
	Active    bool                        `gorm:"column:active;not null" json:"active"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plans"
}

func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
