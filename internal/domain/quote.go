package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Vehicle is the descriptor a quote is computed for.
type Vehicle struct {
	Make         string          `json:"make"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Value        decimal.Decimal `json:"value"`
	Municipality string          `json:"municipality,omitempty"`
}

// Quote is a computed premium snapshot. It is never updated after it is returned.
type Quote struct {
	InsurerID        uuid.UUID         `json:"insurer_id"`
	InsurerName      string            `json:"insurer_name"`
	RateTableID      uuid.UUID         `json:"rate_table_id"`
	ProductName      string            `json:"product_name"`
	CoverageType     CoverageType      `json:"coverage_type"`
	MonthlyPremium   decimal.Decimal   `json:"monthly_premium"`
	AnnualPremium    decimal.Decimal   `json:"annual_premium"`
	InstallmentCount int               `json:"installment_count"`
	Coverage         map[string]string `json:"coverage"`
}
