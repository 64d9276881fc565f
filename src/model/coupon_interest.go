package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/compartmentdesk/backend/src/models"
)

const couponInterestColumns = `id, isin_id, interest_rate, coupon_rate, event_date, status, type, created_at`

func scanCouponInterest(row rowScanner) (models.CouponInterest, error) {
	var c models.CouponInterest
	var eventDate sql.NullString
	if err := row.Scan(&c.ID, &c.IsinID, &c.InterestRate, &c.CouponRate, &eventDate, &c.Status, &c.Type, &c.CreatedAt); err != nil {
		return models.CouponInterest{}, err
	}
	c.EventDate = stringPtr(eventDate)
	return c, nil
}

func queryCouponInterests(ctx context.Context, q Querier, query string, args ...any) ([]models.CouponInterest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CouponInterest{}
	for rows.Next() {
		c, err := scanCouponInterest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCouponInterestsByIsin returns the rate history of an ISIN, latest event
// first and undated records last.
func ListCouponInterestsByIsin(ctx context.Context, q Querier, isinID string) ([]models.CouponInterest, error) {
	return queryCouponInterests(ctx, q, `
		SELECT `+couponInterestColumns+` FROM coupon_interests
		WHERE isin_id = ?
		ORDER BY event_date IS NULL, event_date DESC, created_at DESC`, isinID)
}

// ListCurrentCouponInterests returns every record with status current, across ISINs.
func ListCurrentCouponInterests(ctx context.Context, q Querier) ([]models.CouponInterest, error) {
	return queryCouponInterests(ctx, q, `
		SELECT `+couponInterestColumns+` FROM coupon_interests
		WHERE status = 1
		ORDER BY isin_id, created_at`)
}

// GetCouponInterest loads a single record.
func GetCouponInterest(ctx context.Context, q Querier, id string) (models.CouponInterest, error) {
	row := q.QueryRowContext(ctx, `SELECT `+couponInterestColumns+` FROM coupon_interests WHERE id = ?`, id)
	c, err := scanCouponInterest(row)
	if err != nil {
		return models.CouponInterest{}, notFound(err)
	}
	return c, nil
}

// InsertCouponInterest stores a new rate record. CreatedAt is set on the passed value.
func InsertCouponInterest(ctx context.Context, q Querier, c *models.CouponInterest) error {
	c.CreatedAt = timestamp()
	_, err := q.ExecContext(ctx, `
		INSERT INTO coupon_interests (`+couponInterestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.IsinID, c.InterestRate, c.CouponRate, nullString(c.EventDate), c.Status, c.Type, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert coupon interest for isin %s: %w", c.IsinID, err)
	}
	return nil
}

func updateCouponInterestColumn(ctx context.Context, q Querier, column, id string, value any) error {
	res, err := q.ExecContext(ctx, `UPDATE coupon_interests SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateInterestRate sets the interest rate of one record.
func UpdateInterestRate(ctx context.Context, q Querier, id string, rate float64) error {
	return updateCouponInterestColumn(ctx, q, "interest_rate", id, rate)
}

// UpdateCouponRate sets the coupon rate of one record.
func UpdateCouponRate(ctx context.Context, q Querier, id string, rate float64) error {
	return updateCouponInterestColumn(ctx, q, "coupon_rate", id, rate)
}

// UpdateCouponInterestStatus sets the status of one record.
func UpdateCouponInterestStatus(ctx context.Context, q Querier, id string, status int) error {
	return updateCouponInterestColumn(ctx, q, "status", id, status)
}

// DeleteCouponInterest removes one record.
func DeleteCouponInterest(ctx context.Context, q Querier, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM coupon_interests WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
