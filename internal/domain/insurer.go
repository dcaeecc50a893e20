package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CoverageType string

const (
	FullCoverage CoverageType = "FullCoverage"
	ThirdParty   CoverageType = "ThirdParty"
)

func (c CoverageType) Valid() bool {
	return c == FullCoverage || c == ThirdParty
}

// Insurer is an "aseguradora"; its pricing lives in one RateTable per coverage type.
type Insurer struct {
	ID         uuid.UUID   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name       string      `gorm:"column:name;not null;uniqueIndex" json:"name"`
	LogoURL    *string     `gorm:"column:logo_url" json:"logo_url"`
	Active     bool        `gorm:"column:active;not null" json:"active"`
	RateTables []RateTable `gorm:"foreignKey:InsurerID;constraint:OnDelete:CASCADE" json:"rate_tables"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (Insurer) TableName() string {
	return "insurers"
}

func (i *Insurer) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// RateBand prices vehicle values in [LowerBound, UpperBound). A nil UpperBound is open-ended.
type RateBand struct {
	LowerBound  decimal.Decimal  `json:"lower_bound"`
	UpperBound  *decimal.Decimal `json:"upper_bound"`
	RatePercent decimal.Decimal  `json:"rate_percent"`
}

// CoverageSection is a named sub-coverage shown with a quote: either a
// percentage of the insured value or a fixed amount.
type CoverageSection struct {
	Name           string           `json:"name"`
	PercentOfValue *decimal.Decimal `json:"percent_of_value,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Description    string           `json:"description,omitempty"`
}

// RateTable is the pricing configuration of one insurer for one coverage type.
type RateTable struct {
	ID               uuid.UUID                            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InsurerID        uuid.UUID                            `gorm:"column:insurer_id;type:uuid;not null;uniqueIndex:idx_rate_tables_insurer_coverage" json:"insurer_id"`
	CoverageType     CoverageType                         `gorm:"column:coverage_type;type:varchar(20);not null;uniqueIndex:idx_rate_tables_insurer_coverage" json:"coverage_type"`
	ProductName      string                               `gorm:"column:product_name;not null" json:"product_name"`
	TaxRate          decimal.Decimal                      `gorm:"column:tax_rate;type:numeric(9,4);not null" json:"tax_rate"`
	InstallmentCount int                                  `gorm:"column:installment_count;not null;default:12" json:"installment_count"`
	IssuanceFee      decimal.Decimal                      `gorm:"column:issuance_fee;type:numeric(18,2);not null;default:0" json:"issuance_fee"`
	AssistanceFee    decimal.Decimal                      `gorm:"column:assistance_fee;type:numeric(18,2);not null;default:0" json:"assistance_fee"`
	MinimumPremium   decimal.Decimal                      `gorm:"column:minimum_premium;type:numeric(18,2);not null;default:0" json:"minimum_premium"`
	NetPremium       decimal.Decimal                      `gorm:"column:net_premium;type:numeric(18,2);not null;default:0" json:"net_premium"`
	RateBands        datatypes.JSONSlice[RateBand]        `gorm:"column:rate_bands" json:"rate_bands"`
	Coverages        datatypes.JSONSlice[CoverageSection] `gorm:"column:coverages" json:"coverages"`
	YearFrom         int                                  `gorm:"column:year_from;not null" json:"year_from"`
	YearTo           int                                  `gorm:"column:year_to;not null" json:"year_to"`
	Active           bool                                 `gorm:"column:active;not null" json:"active"`
	CreatedAt        time.Time                            `json:"created_at"`
	UpdatedAt        time.Time                            `json:"updated_at"`
}

func (RateTable) TableName() string {
	return "rate_tables"
}

func (r *RateTable) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// CoversYear reports whether year falls inside the inclusive eligibility window.
func (r RateTable) CoversYear(year int) bool {
	return r.YearFrom <= year && year <= r.YearTo
}
