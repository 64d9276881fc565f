// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/parsers/blotter"
)

// Define common service errors
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidFrequency = bondcalc.ErrInvalidFrequency
)

// ScheduleWarning is reported on the view when the coupon schedule cannot be built.
const ScheduleWarning = "Error calculating coupon dates"

// BuySellView is everything the trading screen needs for one ISIN. The
// transactions carry freshly derived economics.
type BuySellView struct {
	Isin            models.Isin               `json:"isin"`
	Transactions    []models.TradeTransaction `json:"transactions"`
	CouponInterests []models.CouponInterest   `json:"coupon_interests"`
	CouponDates     []models.CouponDate       `json:"coupon_dates"`
	Position        models.PositionSummary    `json:"position"`
	Warnings        []string                  `json:"warnings,omitempty"`
}

// TradeInput carries the user-entered fields of a trade.
type TradeInput struct {
	TradeType    string  `json:"trade_type"`
	TradeDate    string  `json:"trade_date"`
	ValueDate    string  `json:"value_date"`
	Notional     float64 `json:"notional"`
	PriceClean   float64 `json:"price_clean"`
	TranFee      float64 `json:"tranfee"`
	Counterparty string  `json:"counterparty"`
	BankInvestor string  `json:"bank_investor"`
	Reference    string  `json:"reference"`
	Sales        string  `json:"sales"`
}

// CouponInterestInput describes a new entry of the rate history.
type CouponInterestInput struct {
	InterestRate float64 `json:"interest_rate"`
	CouponRate   float64 `json:"coupon_rate"`
	EventDate    *string `json:"event_date"`
	Status       int     `json:"status"`
	Type         int     `json:"type"`
}

// ImportResult reports a blotter import.
type ImportResult struct {
	Imported     int                       `json:"imported"`
	Skipped      []blotter.SkippedRow      `json:"skipped"`
	Transactions []models.TradeTransaction `json:"transactions"`
}

// CalcRequest is a self-contained economics calculation: ISIN terms, one
// trade and an optional rate history.
type CalcRequest struct {
	IssueDate       string                  `json:"issue_date"`
	MaturityDate    string                  `json:"maturity_date"`
	CouponFrequency string                  `json:"coupon_frequency"`
	Trade           TradeInput              `json:"trade"`
	CouponInterests []models.CouponInterest `json:"coupon_interests"`
}

// BuySellService is the application service behind the buy/sell trading screen.
type BuySellService interface {
	ListIsins(ctx context.Context) ([]models.Isin, error)
	CreateIsin(ctx context.Context, isin models.Isin) (models.Isin, error)
	// LoadIsinData returns the ISIN with its rate history, from cache when possible.
	LoadIsinData(ctx context.Context, isinID string) (models.Isin, error)

	GetBuySellView(ctx context.Context, isinID string) (*BuySellView, error)
	CouponSchedule(ctx context.Context, isinID string) ([]models.CouponDate, error)
	RecalculateTransaction(ctx context.Context, isinID string, tx models.TradeTransaction, field string) (models.TradeTransaction, error)
	Calculate(ctx context.Context, req CalcRequest) (bondcalc.Economics, error)

	SaveTrade(ctx context.Context, isinID string, in TradeInput) (models.TradeTransaction, error)
	UpdateTrade(ctx context.Context, tradeID string, in TradeInput) (models.TradeTransaction, error)
	DeleteTrade(ctx context.Context, tradeID string) error
	ImportTrades(ctx context.Context, isinID string, file io.Reader) (*ImportResult, error)

	ListCouponInterests(ctx context.Context, isinID string) ([]models.CouponInterest, error)
	AddCouponInterest(ctx context.Context, isinID string, in CouponInterestInput) (models.CouponInterest, error)
	UpdateInterestRate(ctx context.Context, id string, rate float64) error
	UpdateCouponRate(ctx context.Context, id string, rate float64) error
	DeleteCouponInterest(ctx context.Context, id string) error

	// InvalidateIsin drops the cached data of one ISIN.
	InvalidateIsin(ctx context.Context, isinID string)
}
