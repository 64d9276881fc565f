// backend/src/services/upload_service.go
package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/model"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/parsers/blotter"
)

// ImportTrades stores every valid row of a blotter in one transaction. Rows the
// parser skipped are reported back; a blotter without a single valid row is rejected.
func (s *buySellServiceImpl) ImportTrades(ctx context.Context, isinID string, file io.Reader) (*ImportResult, error) {
	isin, err := s.LoadIsinData(ctx, isinID)
	if err != nil {
		return nil, err
	}

	parsed, err := s.blotterParser.Parse(file)
	if err != nil {
		return nil, invalid(err)
	}

	result := &ImportResult{
		Skipped:      parsed.Skipped,
		Transactions: make([]models.TradeTransaction, 0, len(parsed.Trades)),
	}
	if result.Skipped == nil {
		result.Skipped = []blotter.SkippedRow{}
	}

	trades := parsed.Trades
	for i := range trades {
		trades[i].ID = uuid.New().String()
		trades[i].IsinID = isinID
		trades[i].TranStatus = models.TranStatusSubscription
		result.Transactions = append(result.Transactions, s.price(ctx, isin, &trades[i]))
	}

	if err := model.InsertTrades(ctx, s.db, trades); err != nil {
		return nil, fmt.Errorf("import trades for isin %s: %w", isinID, err)
	}
	for i := range trades {
		result.Transactions[i].Trade = trades[i]
	}
	result.Imported = len(trades)

	logger.FromContext(ctx).Info("Blotter imported", "isinID", isinID, "imported", result.Imported, "skipped", len(result.Skipped))
	return result, nil
}
