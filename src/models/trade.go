package models

import "github.com/username/compartmentdesk/backend/src/bondcalc"

const (
	TradeTypeBuy  = "Buy"
	TradeTypeSell = "Sell"
)

// Trade type ids as the blotter reference data numbers them.
var TradeTypeIDs = map[string]int{
	TradeTypeBuy:  2,
	TradeTypeSell: 3,
}

// Trade statuses.
const (
	TranStatusSubscription = 1
	TranStatusModified     = 2
)

// Trade is a persisted buy or sell of notes of one ISIN.
type Trade struct {
	ID           string  `json:"id"`
	IsinID       string  `json:"isin_id"`
	TradeType    string  `json:"trade_type"`
	TradeDate    string  `json:"trade_date"` // YYYY-MM-DD
	ValueDate    string  `json:"value_date"` // YYYY-MM-DD
	Notional     float64 `json:"notional"`
	PriceClean   float64 `json:"price_clean"`
	PriceDirty   float64 `json:"price_dirty"`
	TranFee      float64 `json:"tranfee"` // fraction, 0.001 = 0.1%
	Counterparty string  `json:"counterparty"`
	BankInvestor string  `json:"bank_investor"`
	Reference    string  `json:"reference"`
	Sales        string  `json:"sales"`
	TranStatus   int     `json:"transtatus"`
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// Inputs extracts the fields the economics depend on. Unparseable dates are left unset.
func (t Trade) Inputs() bondcalc.TradeInputs {
	in := bondcalc.TradeInputs{
		Notional:   t.Notional,
		PriceClean: t.PriceClean,
		TranFee:    t.TranFee,
	}
	if d, err := bondcalc.ParseDate(t.TradeDate); err == nil {
		in.TradeDate = &d
	}
	if d, err := bondcalc.ParseDate(t.ValueDate); err == nil {
		in.ValueDate = &d
	}
	return in
}

// TradeTransaction is a trade with its derived economics. The derived fields
// are recomputed on every load and never read back from storage.
type TradeTransaction struct {
	Trade
	DaysAccrued          int     `json:"daysAccrued"`
	AccruedCurrency      float64 `json:"accruedCurrency"`
	SettlementAmount     float64 `json:"settlementAmount"`
	TransactionFeeAmount float64 `json:"transactionFeeAmount"`
	InterestRate         float64 `json:"interestRate"`
}

// Apply copies econ onto the transaction, including the dirty price.
func (tx *TradeTransaction) Apply(econ bondcalc.Economics) {
	tx.DaysAccrued = econ.DaysAccrued
	tx.AccruedCurrency = econ.AccruedCurrency
	tx.SettlementAmount = econ.SettlementAmount
	tx.TransactionFeeAmount = econ.TransactionFeeAmount
	tx.InterestRate = econ.InterestRate
	tx.PriceDirty = econ.PriceDirty
}

// ClearDerived zeroes the derived fields.
func (tx *TradeTransaction) ClearDerived() {
	tx.DaysAccrued = 0
	tx.AccruedCurrency = 0
	tx.SettlementAmount = 0
	tx.TransactionFeeAmount = 0
	tx.InterestRate = 0
}
