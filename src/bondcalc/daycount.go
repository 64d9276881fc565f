package bondcalc

import "time"

// DefaultDayCountBasis is the denominator of the 30/360 accrual formula.
const DefaultDayCountBasis = 360

// DateLayout is the calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Days360 counts days between start and end under 30/360 US/NASD, the way
// spreadsheet DAYS360 does with its default method:
//   - if d1 == 31 then d1 = 30
//   - if d2 == 31 and d1 >= 30 then d2 = 30
//
// There is no end-of-February rule. The result is negative when start is after end.
func Days360(start, end time.Time) int {
	y1, m1, d1 := start.Date()
	y2, m2, d2 := end.Date()

	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	return (y2-y1)*360 + int(m2-m1)*30 + (d2 - d1)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the clock part of t, keeping its calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDate accepts YYYY-MM-DD and RFC3339 timestamps and returns the calendar date.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return Truncate(t), nil
}
