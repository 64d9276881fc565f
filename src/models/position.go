package models

import "github.com/shopspring/decimal"

// PositionSummary nets the trades of one ISIN. Amounts are decimals so totals
// over many trades do not drift.
type PositionSummary struct {
	IsinID         string          `json:"isin_id"`
	TradeCount     int             `json:"trade_count"`
	BoughtNotional decimal.Decimal `json:"bought_notional"`
	SoldNotional   decimal.Decimal `json:"sold_notional"`
	NetNotional    decimal.Decimal `json:"net_notional"`
	NetSettlement  decimal.Decimal `json:"net_settlement"`
	TotalAccrued   decimal.Decimal `json:"total_accrued"`
	TotalFees      decimal.Decimal `json:"total_fees"`
	AverageDirty   decimal.Decimal `json:"average_dirty_price"`
}
