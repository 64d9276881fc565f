package processors

import "github.com/username/compartmentdesk/backend/src/models"

// PositionProcessor aggregates the transactions of one ISIN.
type PositionProcessor interface {
	Process(isinID string, txs []models.TradeTransaction) models.PositionSummary
}
