package quotes

import (
	"fmt"

	"protegeya-backend/internal/domain"
	"protegeya-backend/internal/pkg/validation"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ValidateRateTable checks the structural invariants the premium math relies on.
// FullCoverage bands must start at 0, be ordered and contiguous; only the last band may be open-ended.
func ValidateRateTable(rt domain.RateTable) error {
	errs := validation.Errors{}
	if !rt.CoverageType.Valid() {
		errs.Add("coverage_type", "must be one of: FullCoverage ThirdParty")
	}
	if rt.InstallmentCount < 1 {
		errs.Add("installment_count", "must be at least 1")
	}
	if rt.TaxRate.IsNegative() || rt.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs.Add("tax_rate", "must be a fraction between 0 and 1")
	}
	if rt.IssuanceFee.IsNegative() {
		errs.Add("issuance_fee", "must not be negative")
	}
	if rt.AssistanceFee.IsNegative() {
		errs.Add("assistance_fee", "must not be negative")
	}
	if rt.YearFrom > rt.YearTo {
		errs.Add("year_from", "must not be after year_to")
	}

	switch rt.CoverageType {
	case domain.FullCoverage:
		if rt.MinimumPremium.IsNegative() {
			errs.Add("minimum_premium", "must not be negative")
		}
		validateBands(rt.RateBands, errs)
	case domain.ThirdParty:
		if !rt.NetPremium.IsPositive() {
			errs.Add("net_premium", "must be greater than 0")
		}
	}

	for i, c := range rt.Coverages {
		field := fmt.Sprintf("coverages[%d]", i)
		if c.Name == "" {
			errs.Add(field+".name", "is required")
		}
		if (c.PercentOfValue == nil) == (c.Amount == nil) {
			errs.Add(field, "needs exactly one of percent_of_value or amount")
		}
	}
	return errs.OrNil()
}

func validateBands(bands []domain.RateBand, errs validation.Errors) {
	if len(bands) == 0 {
		errs.Add("rate_bands", "at least one band is required")
		return
	}
	if !bands[0].LowerBound.IsZero() {
		errs.Add("rate_bands[0].lower_bound", "must be 0")
	}
	for i, b := range bands {
		field := fmt.Sprintf("rate_bands[%d]", i)
		if !b.RatePercent.IsPositive() {
			errs.Add(field+".rate_percent", "must be greater than 0")
		}
		last := i == len(bands)-1
		if b.UpperBound == nil {
			if !last {
				errs.Add(field+".upper_bound", "only the last band may be open-ended")
			}
			continue
		}
		if b.UpperBound.LessThanOrEqual(b.LowerBound) {
			errs.Add(field+".upper_bound", "must be greater than lower_bound")
		}
		if !last && !bands[i+1].LowerBound.Equal(*b.UpperBound) {
			errs.Add(fmt.Sprintf("rate_bands[%d].lower_bound", i+1), "must equal the previous band's upper_bound")
		}
	}
}

// FindBand returns the band pricing value. Values past the last band's
// upper bound use the last band. bands must have passed ValidateRateTable.
func FindBand(bands []domain.RateBand, value decimal.Decimal) (domain.RateBand, bool) {
	if len(bands) == 0 || value.IsNegative() {
		return domain.RateBand{}, false
	}
	for i, b := range bands {
		if BandContains(b, value, i == len(bands)-1) {
			return b, true
		}
	}
	return domain.RateBand{}, false
}

// BandContains reports whether value falls in [lower, upper); the last band has no upper limit.
func BandContains(b domain.RateBand, value decimal.Decimal, last bool) bool {
	if value.LessThan(b.LowerBound) {
		return false
	}
	return last || b.UpperBound == nil || value.LessThan(*b.UpperBound)
}

// Premium computes the monthly installment for a vehicle value. Intermediate
// values keep full precision; the result is rounded once, half-up, to cents.
func Premium(rt domain.RateTable, value decimal.Decimal) (decimal.Decimal, error) {
	var base decimal.Decimal
	switch rt.CoverageType {
	case domain.FullCoverage:
		band, ok := FindBand(rt.RateBands, value)
		if !ok {
			return decimal.Zero, fmt.Errorf("no rate band for value %s", value)
		}
		base = decimal.Max(value.Mul(band.RatePercent).Div(hundred), rt.MinimumPremium)
	case domain.ThirdParty:
		base = rt.NetPremium
	default:
		return decimal.Zero, fmt.Errorf("unknown coverage type %q", rt.CoverageType)
	}
	if rt.InstallmentCount < 1 {
		return decimal.Zero, fmt.Errorf("invalid installment count %d", rt.InstallmentCount)
	}
	preTax := base.Add(rt.IssuanceFee).Add(rt.AssistanceFee)
	withTax := preTax.Mul(decimal.NewFromInt(1).Add(rt.TaxRate))
	return withTax.Div(decimal.NewFromInt(int64(rt.InstallmentCount))).Round(2), nil
}
