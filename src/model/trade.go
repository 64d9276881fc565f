package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/compartmentdesk/backend/src/models"
)

const tradeColumns = `id, isin_id, trade_type, trade_date, value_date, notional, price_clean, price_dirty,
	tranfee, counterparty, bank_investor, reference, sales, transtatus, created_at, updated_at`

func scanTrade(row rowScanner) (models.Trade, error) {
	var t models.Trade
	var tradeDate, valueDate sql.NullString
	err := row.Scan(&t.ID, &t.IsinID, &t.TradeType, &tradeDate, &valueDate, &t.Notional, &t.PriceClean,
		&t.PriceDirty, &t.TranFee, &t.Counterparty, &t.BankInvestor, &t.Reference, &t.Sales, &t.TranStatus,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Trade{}, err
	}
	t.TradeDate = tradeDate.String
	t.ValueDate = valueDate.String
	return t, nil
}

func optionalDate(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListTradesByIsin returns the trades of an ISIN, newest first.
func ListTradesByIsin(ctx context.Context, q Querier, isinID string) ([]models.Trade, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE isin_id = ? ORDER BY created_at DESC, id`, isinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// GetTrade loads one trade.
func GetTrade(ctx context.Context, q Querier, id string) (models.Trade, error) {
	t, err := scanTrade(q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id))
	if err != nil {
		return models.Trade{}, notFound(err)
	}
	return t, nil
}

// InsertTrade stores a new trade. CreatedAt and UpdatedAt are set on the passed value.
func InsertTrade(ctx context.Context, q Querier, t *models.Trade) error {
	t.CreatedAt = timestamp()
	t.UpdatedAt = t.CreatedAt
	_, err := q.ExecContext(ctx, `
		INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.IsinID, t.TradeType, optionalDate(t.TradeDate), optionalDate(t.ValueDate), t.Notional,
		t.PriceClean, t.PriceDirty, t.TranFee, t.Counterparty, t.BankInvestor, t.Reference, t.Sales,
		t.TranStatus, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", t.ID, err)
	}
	return nil
}

// InsertTrades stores a batch of trades in a single transaction.
func InsertTrades(ctx context.Context, db *sql.DB, trades []models.Trade) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		for i := range trades {
			if err := InsertTrade(ctx, tx, &trades[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateTrade overwrites the editable fields of a trade and marks it modified.
func UpdateTrade(ctx context.Context, q Querier, t *models.Trade) error {
	t.TranStatus = models.TranStatusModified
	t.UpdatedAt = timestamp()
	res, err := q.ExecContext(ctx, `
		UPDATE trades SET trade_type = ?, trade_date = ?, value_date = ?, notional = ?, price_clean = ?,
			price_dirty = ?, tranfee = ?, counterparty = ?, bank_investor = ?, reference = ?, sales = ?,
			transtatus = ?, updated_at = ?
		WHERE id = ?`,
		t.TradeType, optionalDate(t.TradeDate), optionalDate(t.ValueDate), t.Notional, t.PriceClean,
		t.PriceDirty, t.TranFee, t.Counterparty, t.BankInvestor, t.Reference, t.Sales,
		t.TranStatus, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update trade %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTrade removes one trade.
func DeleteTrade(ctx context.Context, q Querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
