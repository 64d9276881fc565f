package bondcalc

import "time"

// RateStatus marks where a coupon interest record sits in the rate history.
type RateStatus int

const (
	StatusCurrent    RateStatus = 1
	StatusHistorical RateStatus = 2
)

// RateRecord is one entry of an ISIN's coupon interest history. It applies from
// EventDate onwards; records without an event date never match a trade.
type RateRecord struct {
	ID           string
	IsinID       string
	InterestRate float64
	CouponRate   float64
	EventDate    *time.Time
	Status       RateStatus
	Type         int
}

// FindApplicableRate selects the rate record for a trade.
//
// The first record whose event date lies in [tradeDate, valueDate] wins. Otherwise
// the record with the latest event date not after valueDate is returned. It
// returns nil when no record qualifies or when either date is missing.
func FindApplicableRate(tradeDate, valueDate *time.Time, history []RateRecord) *RateRecord {
	if tradeDate == nil || valueDate == nil || len(history) == 0 {
		return nil
	}

	for i := range history {
		ev := history[i].EventDate
		if ev == nil {
			continue
		}
		if !ev.Before(*tradeDate) && !ev.After(*valueDate) {
			return &history[i]
		}
	}

	var latest *RateRecord
	for i := range history {
		ev := history[i].EventDate
		if ev == nil || ev.After(*valueDate) {
			continue
		}
		if latest == nil || ev.After(*latest.EventDate) {
			latest = &history[i]
		}
	}
	return latest
}

// BaseCouponRate is the rate used when no history record applies to a trade:
// the current record's rate, else the first record's rate, else fallback.
func BaseCouponRate(history []RateRecord, fallback float64) float64 {
	for _, r := range history {
		if r.Status == StatusCurrent {
			return r.InterestRate
		}
	}
	if len(history) > 0 {
		return history[0].InterestRate
	}
	return fallback
}
