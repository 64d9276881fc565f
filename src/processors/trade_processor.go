package processors

import (
	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/models"
)

// TradeProcessor enriches stored trades with their derived economics.
type TradeProcessor struct {
	settings bondcalc.Settings
}

func NewTradeProcessor(settings bondcalc.Settings) *TradeProcessor {
	return &TradeProcessor{settings: settings}
}

// Process recomputes every trade of an ISIN. A trade whose calculation fails is
// returned with zeroed derived fields and its stored dirty price.
func (p *TradeProcessor) Process(isin models.Isin, trades []models.Trade, history []bondcalc.RateRecord) []models.TradeTransaction {
	processed := make([]models.TradeTransaction, 0, len(trades))

	terms, termsErr := isin.Terms()
	if termsErr != nil {
		logger.L.Warn("ISIN terms unusable, derived fields left empty", "isinID", isin.ID, "error", termsErr)
	}

	for _, t := range trades {
		tx := models.TradeTransaction{Trade: t}
		if termsErr == nil {
			if econ, err := bondcalc.Recalculate(t.Inputs(), terms, history, p.settings); err != nil {
				logger.L.Warn("Trade calculation failed, keeping original", "tradeID", t.ID, "isinID", isin.ID, "error", err)
			} else {
				tx.Apply(econ)
			}
		}
		processed = append(processed, tx)
	}
	return processed
}

// Recalculate recomputes one transaction after field changed. Fields outside the
// trigger set return tx unchanged.
func (p *TradeProcessor) Recalculate(isin models.Isin, tx models.TradeTransaction, field string, history []bondcalc.RateRecord) (models.TradeTransaction, error) {
	if !bondcalc.AffectsEconomics(field) {
		return tx, nil
	}
	terms, err := isin.Terms()
	if err != nil {
		return tx, err
	}
	econ, err := bondcalc.Recalculate(tx.Inputs(), terms, history, p.settings)
	if err != nil {
		return tx, err
	}
	tx.Apply(econ)
	return tx, nil
}

// Economics computes the derived fields of a trade that has not been stored yet.
func (p *TradeProcessor) Economics(isin models.Isin, t models.Trade, history []bondcalc.RateRecord) (bondcalc.Economics, error) {
	terms, err := isin.Terms()
	if err != nil {
		return bondcalc.Economics{}, err
	}
	return bondcalc.Recalculate(t.Inputs(), terms, history, p.settings)
}
