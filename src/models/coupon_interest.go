package models

import "github.com/username/compartmentdesk/backend/src/bondcalc"

// Coupon interest record types.
const (
	CouponInterestFixed    = 1
	CouponInterestFloating = 2
)

// CouponInterest is one entry of an ISIN's interest rate history.
type CouponInterest struct {
	ID           string  `json:"id"`
	IsinID       string  `json:"isin_id"`
	InterestRate float64 `json:"interest_rate"`
	CouponRate   float64 `json:"coupon_rate"`
	EventDate    *string `json:"event_date"` // YYYY-MM-DD, nil when not yet effective
	Status       int     `json:"status"`     // 1 current, 2 historical
	Type         int     `json:"type"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

// Record converts the row into the form the rate resolution works on. An
// unparseable event date is treated like a missing one.
func (c CouponInterest) Record() bondcalc.RateRecord {
	rec := bondcalc.RateRecord{
		ID:           c.ID,
		IsinID:       c.IsinID,
		InterestRate: c.InterestRate,
		CouponRate:   c.CouponRate,
		Status:       bondcalc.RateStatus(c.Status),
		Type:         c.Type,
	}
	if c.EventDate != nil {
		if d, err := bondcalc.ParseDate(*c.EventDate); err == nil {
			rec.EventDate = &d
		}
	}
	return rec
}

// RateHistory converts rows to rate records keeping their order.
func RateHistory(rows []CouponInterest) []bondcalc.RateRecord {
	out := make([]bondcalc.RateRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}
