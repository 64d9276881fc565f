// backend/src/services/buysell_service.go
package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/cache"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/model"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/parsers/blotter"
	"github.com/username/compartmentdesk/backend/src/processors"
	"github.com/username/compartmentdesk/backend/src/security/validation"
)

const DefaultCacheExpiration = 10 * time.Minute

type buySellServiceImpl struct {
	db                *sql.DB
	tradeProcessor    *processors.TradeProcessor
	positionProcessor processors.PositionProcessor
	blotterParser     *blotter.Parser
	isinCache         cache.Cache
	cacheTTL          time.Duration
}

func NewBuySellService(
	db *sql.DB,
	tradeProcessor *processors.TradeProcessor,
	positionProcessor processors.PositionProcessor,
	isinCache cache.Cache,
	cacheTTL time.Duration,
) BuySellService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheExpiration
	}
	return &buySellServiceImpl{
		db:                db,
		tradeProcessor:    tradeProcessor,
		positionProcessor: positionProcessor,
		blotterParser:     blotter.NewParser(),
		isinCache:         isinCache,
		cacheTTL:          cacheTTL,
	}
}

// storeErr translates store errors into service errors.
func storeErr(err error, what, id string) error {
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

func (s *buySellServiceImpl) ListIsins(ctx context.Context) ([]models.Isin, error) {
	return model.ListIsins(ctx, s.db)
}

func (s *buySellServiceImpl) CreateIsin(ctx context.Context, isin models.Isin) (models.Isin, error) {
	number, err := validation.ValidateISIN(isin.IsinNumber)
	if err != nil {
		return models.Isin{}, invalid(err)
	}
	isin.IsinNumber = number

	issue, err := validation.ValidateDateString(isin.IssueDate, "issue_date")
	if err != nil {
		return models.Isin{}, invalid(err)
	}
	maturity, err := validation.ValidateDateString(isin.MaturityDate, "maturity_date")
	if err != nil {
		return models.Isin{}, invalid(err)
	}
	if !maturity.After(issue) {
		return models.Isin{}, fmt.Errorf("%w: maturity_date must be after issue_date", ErrValidation)
	}
	isin.IssueDate = issue.Format(bondcalc.DateLayout)
	isin.MaturityDate = maturity.Format(bondcalc.DateLayout)

	freq, err := bondcalc.ParseFrequency(isin.CouponFrequency)
	if err != nil {
		return models.Isin{}, err
	}
	isin.CouponFrequency = freq.String()

	if err := validation.ValidateCurrencyCode(isin.CurrencyShortName); err != nil {
		return models.Isin{}, invalid(err)
	}
	isin.CurrencyShortName = strings.ToUpper(strings.TrimSpace(isin.CurrencyShortName))
	if err := validation.ValidateNonNegative(isin.IssuePrice, "issue_price"); err != nil {
		return models.Isin{}, invalid(err)
	}
	isin.CurrencyName = validation.SanitizeText(isin.CurrencyName)
	isin.CouponTypeName = validation.SanitizeText(isin.CouponTypeName)

	isin.ID = uuid.New().String()
	isin.Status = models.IsinStatusIssued
	isin.CouponInterests = nil
	if err := model.InsertIsin(ctx, s.db, &isin); err != nil {
		return models.Isin{}, err
	}
	logger.FromContext(ctx).Info("ISIN created", "isinID", isin.ID, "isin", isin.IsinNumber)
	return isin, nil
}

func (s *buySellServiceImpl) LoadIsinData(ctx context.Context, isinID string) (models.Isin, error) {
	key := cache.IsinKey(isinID)
	if raw, found := s.isinCache.Get(ctx, key); found {
		var cached models.Isin
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		logger.FromContext(ctx).Warn("Discarding unreadable cached ISIN data", "isinID", isinID)
	}

	var (
		isin    models.Isin
		history []models.CouponInterest
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		isin, err = model.GetIsinByID(gctx, s.db, isinID)
		if err != nil {
			return storeErr(err, "isin", isinID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = model.ListCouponInterestsByIsin(gctx, s.db, isinID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Isin{}, err
	}
	isin.CouponInterests = history

	if raw, err := json.Marshal(isin); err == nil {
		if err := s.isinCache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			logger.FromContext(ctx).Warn("Failed to cache ISIN data", "isinID", isinID, "error", err)
		}
	}
	return isin, nil
}

func (s *buySellServiceImpl) InvalidateIsin(ctx context.Context, isinID string) {
	if err := s.isinCache.Delete(ctx, cache.IsinKey(isinID)); err != nil {
		logger.FromContext(ctx).Warn("Failed to invalidate cached ISIN data", "isinID", isinID, "error", err)
	}
}

func (s *buySellServiceImpl) GetBuySellView(ctx context.Context, isinID string) (*BuySellView, error) {
	var (
		isin   models.Isin
		trades []models.Trade
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		isin, err = s.LoadIsinData(gctx, isinID)
		return err
	})
	g.Go(func() error {
		var err error
		trades, err = model.ListTradesByIsin(gctx, s.db, isinID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	history := models.RateHistory(isin.CouponInterests)
	view := &BuySellView{
		Isin:            isin,
		Transactions:    s.tradeProcessor.Process(isin, trades, history),
		CouponInterests: isin.CouponInterests,
		CouponDates:     []models.CouponDate{},
	}
	view.Isin.CouponInterests = nil
	if view.CouponInterests == nil {
		view.CouponInterests = []models.CouponInterest{}
	}

	dates, err := s.schedule(isin)
	if err != nil {
		logger.FromContext(ctx).Error("Coupon schedule failed", "isinID", isinID, "error", err)
		view.Warnings = append(view.Warnings, ScheduleWarning)
	} else {
		view.CouponDates = dates
	}

	view.Position = s.positionProcessor.Process(isinID, view.Transactions)
	return view, nil
}

func (s *buySellServiceImpl) schedule(isin models.Isin) ([]models.CouponDate, error) {
	terms, err := isin.Terms()
	if err != nil {
		return nil, err
	}
	dates, err := bondcalc.CouponPaymentDates(terms.IssueDate, terms.MaturityDate, terms.Frequency)
	if err != nil {
		return nil, err
	}
	return models.NewCouponDates(dates, terms.MaturityDate), nil
}

func (s *buySellServiceImpl) CouponSchedule(ctx context.Context, isinID string) ([]models.CouponDate, error) {
	isin, err := s.LoadIsinData(ctx, isinID)
	if err != nil {
		return nil, err
	}
	return s.schedule(isin)
}

func (s *buySellServiceImpl) RecalculateTransaction(ctx context.Context, isinID string, tx models.TradeTransaction, field string) (models.TradeTransaction, error) {
	isin, err := s.LoadIsinData(ctx, isinID)
	if err != nil {
		return tx, err
	}
	if tx.IsinID == "" {
		tx.IsinID = isinID
	}
	return s.tradeProcessor.Recalculate(isin, tx, field, models.RateHistory(isin.CouponInterests))
}

func (s *buySellServiceImpl) Calculate(ctx context.Context, req CalcRequest) (bondcalc.Economics, error) {
	isin := models.Isin{
		IssueDate:       req.IssueDate,
		MaturityDate:    req.MaturityDate,
		CouponFrequency: req.CouponFrequency,
	}
	if _, err := isin.Terms(); err != nil {
		if errors.Is(err, bondcalc.ErrInvalidFrequency) {
			return bondcalc.Economics{}, err
		}
		return bondcalc.Economics{}, invalid(err)
	}
	trade := models.Trade{
		TradeDate:  req.Trade.TradeDate,
		ValueDate:  req.Trade.ValueDate,
		Notional:   req.Trade.Notional,
		PriceClean: req.Trade.PriceClean,
		TranFee:    req.Trade.TranFee,
	}
	econ, err := s.tradeProcessor.Economics(isin, trade, models.RateHistory(req.CouponInterests))
	if err != nil {
		return bondcalc.Economics{}, err
	}
	logger.FromContext(ctx).Debug("Economics calculated", "valueDate", trade.ValueDate, "settlementAmount", econ.SettlementAmount)
	return econ, nil
}

// validateTradeInput checks the required fields and normalizes dates and free text.
func validateTradeInput(in TradeInput) (TradeInput, error) {
	switch strings.ToLower(strings.TrimSpace(in.TradeType)) {
	case "buy":
		in.TradeType = models.TradeTypeBuy
	case "sell":
		in.TradeType = models.TradeTypeSell
	default:
		return in, fmt.Errorf("%w: trade_type must be Buy or Sell", ErrValidation)
	}

	tradeDate, err := validation.ValidateDateString(in.TradeDate, "trade_date")
	if err != nil {
		return in, invalid(err)
	}
	valueDate, err := validation.ValidateDateString(in.ValueDate, "value_date")
	if err != nil {
		return in, invalid(err)
	}
	in.TradeDate = tradeDate.Format(bondcalc.DateLayout)
	in.ValueDate = valueDate.Format(bondcalc.DateLayout)

	if err := validation.ValidateTradeAmounts(in.Notional, in.PriceClean, in.TranFee); err != nil {
		return in, invalid(err)
	}

	for name, value := range map[string]string{
		"counterparty":  in.Counterparty,
		"bank_investor": in.BankInvestor,
		"reference":     in.Reference,
		"sales":         in.Sales,
	} {
		if err := validation.CheckXSSPatterns(value, name, in.Reference); err != nil {
			return in, invalid(err)
		}
	}

	in.Counterparty = validation.SanitizeText(in.Counterparty)
	in.BankInvestor = validation.SanitizeText(in.BankInvestor)
	in.Reference = validation.SanitizeText(in.Reference)
	in.Sales = validation.SanitizeText(in.Sales)

	if err := validation.ValidateTradeParties(in.Counterparty, in.BankInvestor, in.Reference, in.Sales); err != nil {
		return in, invalid(err)
	}
	return in, nil
}

func (in TradeInput) applyTo(t *models.Trade) {
	t.TradeType = in.TradeType
	t.TradeDate = in.TradeDate
	t.ValueDate = in.ValueDate
	t.Notional = in.Notional
	t.PriceClean = in.PriceClean
	t.TranFee = in.TranFee
	t.Counterparty = in.Counterparty
	t.BankInvestor = in.BankInvestor
	t.Reference = in.Reference
	t.Sales = in.Sales
}

// price fills the stored dirty price of t and returns it with its economics.
// ISIN terms that cannot be used leave the derived fields empty.
func (s *buySellServiceImpl) price(ctx context.Context, isin models.Isin, t *models.Trade) models.TradeTransaction {
	econ, err := s.tradeProcessor.Economics(isin, *t, models.RateHistory(isin.CouponInterests))
	if err != nil {
		logger.FromContext(ctx).Warn("Trade saved without derived fields", "tradeID", t.ID, "isinID", isin.ID, "error", err)
		return models.TradeTransaction{Trade: *t}
	}
	t.PriceDirty = econ.PriceDirty
	tx := models.TradeTransaction{Trade: *t}
	tx.Apply(econ)
	return tx
}

func (s *buySellServiceImpl) SaveTrade(ctx context.Context, isinID string, in TradeInput) (models.TradeTransaction, error) {
	in, err := validateTradeInput(in)
	if err != nil {
		return models.TradeTransaction{}, err
	}
	isin, err := s.LoadIsinData(ctx, isinID)
	if err != nil {
		return models.TradeTransaction{}, err
	}

	trade := models.Trade{
		ID:         uuid.New().String(),
		IsinID:     isinID,
		TranStatus: models.TranStatusSubscription,
	}
	in.applyTo(&trade)
	tx := s.price(ctx, isin, &trade)

	if err := model.InsertTrade(ctx, s.db, &trade); err != nil {
		return models.TradeTransaction{}, err
	}
	tx.Trade = trade
	logger.FromContext(ctx).Info("Trade saved", "tradeID", trade.ID, "isinID", isinID, "type", trade.TradeType, "notional", trade.Notional)
	return tx, nil
}

func (s *buySellServiceImpl) UpdateTrade(ctx context.Context, tradeID string, in TradeInput) (models.TradeTransaction, error) {
	in, err := validateTradeInput(in)
	if err != nil {
		return models.TradeTransaction{}, err
	}
	trade, err := model.GetTrade(ctx, s.db, tradeID)
	if err != nil {
		return models.TradeTransaction{}, storeErr(err, "trade", tradeID)
	}
	isin, err := s.LoadIsinData(ctx, trade.IsinID)
	if err != nil {
		return models.TradeTransaction{}, err
	}

	in.applyTo(&trade)
	tx := s.price(ctx, isin, &trade)
	if err := model.UpdateTrade(ctx, s.db, &trade); err != nil {
		return models.TradeTransaction{}, storeErr(err, "trade", tradeID)
	}
	tx.Trade = trade
	logger.FromContext(ctx).Info("Trade updated", "tradeID", tradeID, "isinID", trade.IsinID)
	return tx, nil
}

func (s *buySellServiceImpl) DeleteTrade(ctx context.Context, tradeID string) error {
	if err := model.DeleteTrade(ctx, s.db, tradeID); err != nil {
		return storeErr(err, "trade", tradeID)
	}
	logger.FromContext(ctx).Info("Trade deleted", "tradeID", tradeID)
	return nil
}
