package bondcalc

import (
	"sort"
	"time"
)

// adjustWeekend moves a Saturday or Sunday to the following Monday.
// Holidays are not considered.
func adjustWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

// CouponPaymentDates generates the coupon schedule from issue to maturity.
//
// The issue date is the first entry. Each following date is the previous entry
// rolled forward by one period and then moved off a weekend, so a weekend shift
// carries into later periods. When the last rolled date is not the maturity date,
// the maturity date is appended as is, without a weekend shift.
func CouponPaymentDates(issue, maturity time.Time, freq CouponFrequency) ([]time.Time, error) {
	if !freq.Valid() {
		_, err := freq.step(issue)
		return nil, err
	}

	var dates []time.Time
	current := issue
	for !current.After(maturity) {
		dates = append(dates, current)
		next, err := freq.step(current)
		if err != nil {
			return nil, err
		}
		current = adjustWeekend(next)
	}

	if len(dates) > 0 && !dates[len(dates)-1].Equal(maturity) {
		dates = append(dates, maturity)
	}
	return dates, nil
}

// PreviousCouponDate returns the latest schedule date on or before valueDate.
// The input slice is left untouched.
func PreviousCouponDate(valueDate time.Time, dates []time.Time) (time.Time, bool) {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for i := len(sorted) - 1; i >= 0; i-- {
		if !sorted[i].After(valueDate) {
			return sorted[i], true
		}
	}
	return time.Time{}, false
}
