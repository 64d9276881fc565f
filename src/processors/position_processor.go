package processors

import (
	"github.com/shopspring/decimal"

	"github.com/username/compartmentdesk/backend/src/models"
)

type positionProcessorImpl struct{}

func NewPositionProcessor() PositionProcessor {
	return &positionProcessorImpl{}
}

// Process nets the transactions of an ISIN. Buys add to the position and sells
// reduce it; fees and accrued interest are summed regardless of side.
func (p *positionProcessorImpl) Process(isinID string, txs []models.TradeTransaction) models.PositionSummary {
	summary := models.PositionSummary{
		IsinID:         isinID,
		BoughtNotional: decimal.Zero,
		SoldNotional:   decimal.Zero,
		NetNotional:    decimal.Zero,
		NetSettlement:  decimal.Zero,
		TotalAccrued:   decimal.Zero,
		TotalFees:      decimal.Zero,
		AverageDirty:   decimal.Zero,
	}

	weightedDirty := decimal.Zero
	grossNotional := decimal.Zero

	for _, tx := range txs {
		notional := decimal.NewFromFloat(tx.Notional)
		settlement := decimal.NewFromFloat(tx.SettlementAmount)

		switch tx.TradeType {
		case models.TradeTypeBuy:
			summary.BoughtNotional = summary.BoughtNotional.Add(notional)
			summary.NetSettlement = summary.NetSettlement.Add(settlement)
		case models.TradeTypeSell:
			summary.SoldNotional = summary.SoldNotional.Add(notional)
			summary.NetSettlement = summary.NetSettlement.Sub(settlement)
		default:
			continue
		}

		summary.TradeCount++
		summary.TotalAccrued = summary.TotalAccrued.Add(decimal.NewFromFloat(tx.AccruedCurrency))
		summary.TotalFees = summary.TotalFees.Add(decimal.NewFromFloat(tx.TransactionFeeAmount))

		if tx.PriceDirty != 0 {
			weightedDirty = weightedDirty.Add(decimal.NewFromFloat(tx.PriceDirty).Mul(notional))
			grossNotional = grossNotional.Add(notional)
		}
	}

	summary.NetNotional = summary.BoughtNotional.Sub(summary.SoldNotional)
	if !grossNotional.IsZero() {
		summary.AverageDirty = weightedDirty.Div(grossNotional).Round(6)
	}
	summary.NetSettlement = summary.NetSettlement.Round(2)
	summary.TotalAccrued = summary.TotalAccrued.Round(2)
	summary.TotalFees = summary.TotalFees.Round(2)
	return summary
}
