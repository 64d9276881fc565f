package model

import (
	"context"
	"fmt"

	"github.com/username/compartmentdesk/backend/src/models"
)

const isinColumns = `id, isin_number, issue_price, currency_name, currency_short_name, issue_date,
	maturity_date, coupon_type_name, coupon_frequency, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIsin(row rowScanner) (models.Isin, error) {
	var i models.Isin
	err := row.Scan(&i.ID, &i.IsinNumber, &i.IssuePrice, &i.CurrencyName, &i.CurrencyShortName,
		&i.IssueDate, &i.MaturityDate, &i.CouponTypeName, &i.CouponFrequency, &i.Status, &i.CreatedAt)
	return i, err
}

// GetIsinByID loads one ISIN without its rate history.
func GetIsinByID(ctx context.Context, q Querier, id string) (models.Isin, error) {
	row := q.QueryRowContext(ctx, `SELECT `+isinColumns+` FROM isins WHERE id = ?`, id)
	i, err := scanIsin(row)
	if err != nil {
		return models.Isin{}, notFound(err)
	}
	return i, nil
}

// ListIsins returns all ISINs ordered by ISIN number.
func ListIsins(ctx context.Context, q Querier) ([]models.Isin, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+isinColumns+` FROM isins ORDER BY isin_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	isins := []models.Isin{}
	for rows.Next() {
		i, err := scanIsin(rows)
		if err != nil {
			return nil, err
		}
		isins = append(isins, i)
	}
	return isins, rows.Err()
}

// InsertIsin stores a new ISIN. CreatedAt is set on the passed value.
func InsertIsin(ctx context.Context, q Querier, i *models.Isin) error {
	if i.Status == "" {
		i.Status = models.IsinStatusIssued
	}
	i.CreatedAt = timestamp()
	query := `
		INSERT INTO isins (` + isinColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query, i.ID, i.IsinNumber, i.IssuePrice, i.CurrencyName, i.CurrencyShortName,
		i.IssueDate, i.MaturityDate, i.CouponTypeName, i.CouponFrequency, i.Status, i.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert isin %s: %w", i.IsinNumber, err)
	}
	return nil
}

// UpdateIsinStatus sets the compartment status of one ISIN.
func UpdateIsinStatus(ctx context.Context, q Querier, id, status string) error {
	res, err := q.ExecContext(ctx, `UPDATE isins SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MatureIsins moves every ISIN maturing on or before asOf (YYYY-MM-DD) to MATURED
// and returns the number of rows changed.
func MatureIsins(ctx context.Context, q Querier, asOf string) (int64, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE isins SET status = ? WHERE maturity_date <= ? AND status <> ?`,
		models.IsinStatusMatured, asOf, models.IsinStatusMatured)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListIsinsMaturedBy returns the ISINs still open whose maturity is on or before asOf.
func ListIsinsMaturedBy(ctx context.Context, q Querier, asOf string) ([]models.Isin, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+isinColumns+` FROM isins WHERE maturity_date <= ? AND status <> ? ORDER BY maturity_date`,
		asOf, models.IsinStatusMatured)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	isins := []models.Isin{}
	for rows.Next() {
		i, err := scanIsin(rows)
		if err != nil {
			return nil, err
		}
		isins = append(isins, i)
	}
	return isins, rows.Err()
}
