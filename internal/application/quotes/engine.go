package quotes

import (
	"sort"

	"protegeya-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Disclaimer accompanies every quote list.
const Disclaimer = "ProtegeYa es un comparador y generador de leads. No es aseguradora ni corredor. Precios indicativos a confirmar con un corredor autorizado."

// Result is the outcome of a quote request. Quotes is empty (never nil) when Excluded.
type Result struct {
	Quotes          []domain.Quote `json:"quotes"`
	Excluded        bool           `json:"excluded"`
	ExclusionReason string         `json:"exclusion_reason,omitempty"`
	Disclaimer      string         `json:"disclaimer"`
}

// Engine computes quotes from an in-memory snapshot of the rating configuration.
// It has no side effects besides logging skipped tables.
type Engine struct {
	insurers    map[uuid.UUID]domain.Insurer
	tables      []domain.RateTable
	eligibility *Eligibility
}

func NewEngine(insurers []domain.Insurer, tables []domain.RateTable, exclusions []domain.VehicleExclusion) *Engine {
	byID := make(map[uuid.UUID]domain.Insurer, len(insurers))
	for _, in := range insurers {
		byID[in.ID] = in
	}
	return &Engine{insurers: byID, tables: tables, eligibility: NewEligibility(exclusions)}
}

// Quote returns one quote per active insurer and coverage type whose table covers the
// vehicle, ordered by monthly premium ascending, ties by insurer name.
func (e *Engine) Quote(v domain.Vehicle) Result {
	res := Result{Quotes: []domain.Quote{}, Disclaimer: Disclaimer}
	if ex, excluded := e.eligibility.Match(v.Make, v.Model, v.Year); excluded {
		res.Excluded = true
		res.ExclusionReason = ex.Reason
		return res
	}

	for _, rt := range e.tables {
		if !rt.Active || !rt.CoversYear(v.Year) {
			continue
		}
		insurer, ok := e.insurers[rt.InsurerID]
		if !ok {
			log.Warn().Str("rate_table_id", rt.ID.String()).Str("insurer_id", rt.InsurerID.String()).Msg("rate table references unknown insurer, skipped")
			continue
		}
		if !insurer.Active {
			continue
		}
		if err := ValidateRateTable(rt); err != nil {
			log.Warn().Str("rate_table_id", rt.ID.String()).Str("insurer", insurer.Name).Err(err).Msg("malformed rate table, skipped")
			continue
		}
		monthly, err := Premium(rt, v.Value)
		if err != nil {
			log.Warn().Str("rate_table_id", rt.ID.String()).Err(err).Msg("premium computation failed, skipped")
			continue
		}
		res.Quotes = append(res.Quotes, domain.Quote{
			InsurerID:        insurer.ID,
			InsurerName:      insurer.Name,
			RateTableID:      rt.ID,
			ProductName:      rt.ProductName,
			CoverageType:     rt.CoverageType,
			MonthlyPremium:   monthly,
			AnnualPremium:    monthly.Mul(decimal.NewFromInt(int64(rt.InstallmentCount))),
			InstallmentCount: rt.InstallmentCount,
			Coverage:         coverageMap(rt.Coverages, v.Value),
		})
	}

	sort.SliceStable(res.Quotes, func(i, j int) bool {
		a, b := res.Quotes[i], res.Quotes[j]
		if !a.MonthlyPremium.Equal(b.MonthlyPremium) {
			return a.MonthlyPremium.LessThan(b.MonthlyPremium)
		}
		if a.InsurerName != b.InsurerName {
			return a.InsurerName < b.InsurerName
		}
		return a.CoverageType < b.CoverageType
	})
	return res
}

func coverageMap(sections []domain.CoverageSection, value decimal.Decimal) map[string]string {
	out := make(map[string]string, len(sections))
	for _, s := range sections {
		switch {
		case s.PercentOfValue != nil:
			out[s.Name] = domain.FormatQuetzales(value.Mul(*s.PercentOfValue).Div(hundred).Round(2))
		case s.Amount != nil:
			out[s.Name] = domain.FormatQuetzales(*s.Amount)
		}
	}
	return out
}
