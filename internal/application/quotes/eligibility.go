package quotes

import (
	"strings"

	"protegeya-backend/internal/domain"
)

// Eligibility answers whether a vehicle may be quoted at all.
type Eligibility struct {
	exclusions []domain.VehicleExclusion
}

// NewEligibility keeps only active exclusions.
func NewEligibility(exclusions []domain.VehicleExclusion) *Eligibility {
	active := make([]domain.VehicleExclusion, 0, len(exclusions))
	for _, e := range exclusions {
		if e.Active {
			active = append(active, e)
		}
	}
	return &Eligibility{exclusions: active}
}

// IsInsurable is false when an active exclusion matches make and model
// (case-insensitive, trimmed) and, if the exclusion names a year, that year.
func (f *Eligibility) IsInsurable(make, model string, year int) bool {
	_, excluded := f.Match(make, model, year)
	return !excluded
}

// Match returns the first matching exclusion.
func (f *Eligibility) Match(make, model string, year int) (domain.VehicleExclusion, bool) {
	for _, e := range f.exclusions {
		if !sameName(e.Make, make) || !sameName(e.Model, model) {
			continue
		}
		if e.Year != nil && *e.Year != year {
			continue
		}
		return e, true
	}
	return domain.VehicleExclusion{}, false
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
