package bondcalc

import "time"

// DefaultCleanPrice stands in for a trade row with no clean price yet.
const DefaultCleanPrice = 100.0

// Settings carries the defaults the cascade applies to incomplete inputs.
type Settings struct {
	DayCountBasis     int
	DefaultCleanPrice float64
	// FallbackRate is used when the ISIN has no rate history at all.
	FallbackRate float64
}

// DefaultSettings returns the 30/360 settings with a zero fallback rate.
func DefaultSettings() Settings {
	return Settings{
		DayCountBasis:     DefaultDayCountBasis,
		DefaultCleanPrice: DefaultCleanPrice,
	}
}

// TradeInputs are the user-entered fields of a trade that feed the economics.
type TradeInputs struct {
	TradeDate  *time.Time
	ValueDate  *time.Time
	Notional   float64
	PriceClean float64
	// TranFee is a fraction, 0.001 for 0.1%.
	TranFee float64
}

// Economics are the derived fields written back onto a trade.
type Economics struct {
	DaysAccrued          int     `json:"daysAccrued"`
	AccruedCurrency      float64 `json:"accruedCurrency"`
	InterestRate         float64 `json:"interestRate"`
	TransactionFeeAmount float64 `json:"transactionFeeAmount"`
	SettlementAmount     float64 `json:"settlementAmount"`
	PriceDirty           float64 `json:"priceDirty"`
}

// triggerFields are the inputs whose change invalidates the derived fields.
var triggerFields = map[string]bool{
	"value_date":  true,
	"notional":    true,
	"tranfee":     true,
	"price_clean": true,
	"price_dirty": true,
}

// AffectsEconomics reports whether editing field requires a recalculation.
func AffectsEconomics(field string) bool {
	return triggerFields[field]
}

// Recalculate runs the full cascade for one trade: days accrued, accrued
// interest, effective rate, fee, settlement amount and dirty price.
func Recalculate(in TradeInputs, terms IsinTerms, history []RateRecord, s Settings) (Economics, error) {
	var econ Economics

	if in.ValueDate != nil {
		days, err := DaysAccrued(*in.ValueDate, terms)
		if err != nil {
			return Economics{}, err
		}
		econ.DaysAccrued = days
	}

	baseRate := BaseCouponRate(history, s.FallbackRate)
	econ.AccruedCurrency = AccruedInterest(econ.DaysAccrued, in.Notional, baseRate, s.DayCountBasis, in.TradeDate, in.ValueDate, history)

	econ.InterestRate = baseRate
	if r := FindApplicableRate(in.TradeDate, in.ValueDate, history); r != nil && !zero(r.InterestRate) {
		econ.InterestRate = r.InterestRate
	}

	econ.TransactionFeeAmount = TransactionFeeCurrency(in.Notional, in.TranFee)

	priceClean := in.PriceClean
	if zero(priceClean) {
		priceClean = s.DefaultCleanPrice
	}
	econ.SettlementAmount = SettlementAmount(priceClean, in.Notional, econ.TransactionFeeAmount, econ.AccruedCurrency)
	econ.PriceDirty = DirtyPrice(econ.SettlementAmount, in.Notional)
	return econ, nil
}
