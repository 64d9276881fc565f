package bondcalc

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// zero reports the values a partially filled trade row leaves empty. Non-finite
// values count as empty since decimal cannot represent them.
func zero(v float64) bool {
	return v == 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

// IsinTerms is the static data of an ISIN the accrual depends on.
type IsinTerms struct {
	IssueDate    time.Time
	MaturityDate time.Time
	Frequency    CouponFrequency
}

// DaysAccrued counts 30/360 days from the previous coupon date to valueDate.
// It is 0 when valueDate is unset or precedes the schedule.
func DaysAccrued(valueDate time.Time, terms IsinTerms) (int, error) {
	if valueDate.IsZero() || terms.IssueDate.IsZero() || terms.MaturityDate.IsZero() {
		return 0, nil
	}
	dates, err := CouponPaymentDates(terms.IssueDate, terms.MaturityDate, terms.Frequency)
	if err != nil {
		return 0, err
	}
	prev, ok := PreviousCouponDate(valueDate, dates)
	if !ok {
		return 0, nil
	}
	return Days360(prev, valueDate), nil
}

// AccruedInterest is days × notional × rate% / basis. Money amounts are
// computed in decimal and returned as float64.
//
// When both trade dates and a history are given, a matching history record
// overrides couponRate.
func AccruedInterest(daysAccrued int, notional, couponRate float64, dayCountBasis int, tradeDate, valueDate *time.Time, history []RateRecord) float64 {
	if daysAccrued == 0 || zero(notional) {
		return 0
	}
	if dayCountBasis <= 0 {
		dayCountBasis = DefaultDayCountBasis
	}

	rate := couponRate
	if tradeDate != nil && valueDate != nil && len(history) > 0 {
		if r := FindApplicableRate(tradeDate, valueDate, history); r != nil {
			rate = r.InterestRate
		}
	}
	if zero(rate) {
		return 0
	}
	return decimal.NewFromInt(int64(daysAccrued)).
		Mul(decimal.NewFromFloat(notional)).
		Mul(decimal.NewFromFloat(rate)).
		Div(hundred).
		Div(decimal.NewFromInt(int64(dayCountBasis))).
		InexactFloat64()
}

// TransactionFeeCurrency converts a fee fraction (0.01 for 1%) into currency.
func TransactionFeeCurrency(notional, feeFraction float64) float64 {
	if zero(notional) || zero(feeFraction) {
		return 0
	}
	return decimal.NewFromFloat(notional).Mul(decimal.NewFromFloat(feeFraction)).InexactFloat64()
}

// SettlementAmount is the gross clean amount plus fee and accrued interest.
func SettlementAmount(priceClean, notional, feeCurrency, accruedCurrency float64) float64 {
	if zero(priceClean) || zero(notional) {
		return 0
	}
	if zero(feeCurrency) {
		feeCurrency = 0
	}
	if zero(accruedCurrency) {
		accruedCurrency = 0
	}
	return decimal.NewFromFloat(priceClean).Div(hundred).
		Mul(decimal.NewFromFloat(notional)).
		Add(decimal.NewFromFloat(feeCurrency)).
		Add(decimal.NewFromFloat(accruedCurrency)).
		InexactFloat64()
}

// DirtyPrice expresses the settlement amount per 100 of notional.
func DirtyPrice(settlementAmount, notional float64) float64 {
	if zero(settlementAmount) || zero(notional) {
		return 0
	}
	return decimal.NewFromFloat(settlementAmount).
		Div(decimal.NewFromFloat(notional)).
		Mul(hundred).
		InexactFloat64()
}
