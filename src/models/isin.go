package models

import (
	"fmt"
	"time"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
)

// Compartment statuses carried on an ISIN.
const (
	IsinStatusIssued  = "ISSUED"
	IsinStatusMatured = "MATURED"
)

// Isin is the static data of an issued note together with its rate history.
type Isin struct {
	ID                string           `json:"id"`
	IsinNumber        string           `json:"isin_number"`
	IssuePrice        float64          `json:"issue_price"`
	CurrencyName      string           `json:"currency_name"`
	CurrencyShortName string           `json:"currency_short_name"`
	IssueDate         string           `json:"issue_date"`    // YYYY-MM-DD
	MaturityDate      string           `json:"maturity_date"` // YYYY-MM-DD
	CouponTypeName    string           `json:"coupon_type_name"`
	CouponFrequency   string           `json:"coupon_frequency"`
	Status            string           `json:"status"`
	CreatedAt         string           `json:"created_at,omitempty"`
	CouponInterests   []CouponInterest `json:"coupon_interests,omitempty"`
}

// Terms converts the stored dates and frequency label into calculation terms.
func (i Isin) Terms() (bondcalc.IsinTerms, error) {
	freq, err := bondcalc.ParseFrequency(i.CouponFrequency)
	if err != nil {
		return bondcalc.IsinTerms{}, err
	}
	issue, err := bondcalc.ParseDate(i.IssueDate)
	if err != nil {
		return bondcalc.IsinTerms{}, fmt.Errorf("isin %s issue date: %w", i.IsinNumber, err)
	}
	maturity, err := bondcalc.ParseDate(i.MaturityDate)
	if err != nil {
		return bondcalc.IsinTerms{}, fmt.Errorf("isin %s maturity date: %w", i.IsinNumber, err)
	}
	return bondcalc.IsinTerms{IssueDate: issue, MaturityDate: maturity, Frequency: freq}, nil
}

// CouponDate is one entry of an ISIN's coupon schedule.
type CouponDate struct {
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	IsMaturity bool   `json:"is_maturity"`
}

// NewCouponDates formats a schedule, flagging the entry that falls on maturity.
func NewCouponDates(dates []time.Time, maturity time.Time) []CouponDate {
	out := make([]CouponDate, 0, len(dates))
	for _, d := range dates {
		out = append(out, CouponDate{
			Date:       d.Format(bondcalc.DateLayout),
			Weekday:    d.Weekday().String(),
			IsMaturity: d.Equal(maturity),
		})
	}
	return out
}
