package accounts

import "time"

const billingPeriodLayout = "2006-01-02"

// addMonths moves t by n calendar months keeping its day of month,
// clamped to the last day of shorter months (Jan 31 + 1 = Feb 28).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// periodStart is the start of billing period n (0-based) of an account anchored at anchor.
// Periods are always computed from the anchor so clamping never drifts the billing day.
func periodStart(anchor time.Time, n int) time.Time {
	return addMonths(anchor, n)
}

// periodLabel identifies a billing period; it is unique per account.
func periodLabel(anchor time.Time, n int) string {
	return periodStart(anchor, n).Format(billingPeriodLayout)
}
