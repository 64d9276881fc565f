// Package blotter reads trade blotter CSV exports into trades.
package blotter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/logger"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/security/validation"
)

var (
	ErrMissingColumns = errors.New("blotter: missing required columns")
	ErrNoValidRows    = errors.New("blotter: no valid trade rows")
)

// Columns lists the header names, in export order.
var Columns = []string{
	"trade_type", "trade_date", "value_date", "notional", "price_clean", "tranfee",
	"counterparty", "bank_investor", "reference",
}

var requiredColumns = []string{"trade_type", "trade_date", "value_date", "notional", "counterparty", "bank_investor"}

// SkippedRow describes a data row that was not imported. Line is 1-based and
// counts the header.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result holds the parsed trades and the rows left out.
type Result struct {
	Trades  []models.Trade `json:"-"`
	Skipped []SkippedRow   `json:"skipped"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a blotter. Columns are matched by header name in any order.
// Rows are skipped when they fail the checks of manual trade entry: unknown
// trade type, bad dates, invalid amounts or missing parties.
func (p *Parser) Parse(file io.Reader) (*Result, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("blotter parser: failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	res := &Result{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("blotter parser: line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		field := func(name string) string {
			if i, ok := index[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		trade, err := toTrade(field)
		if err != nil {
			logger.L.Warn("Blotter parser: skipping row", "line", line, "error", err)
			res.Skipped = append(res.Skipped, SkippedRow{Line: line, Reason: err.Error()})
			continue
		}
		res.Trades = append(res.Trades, trade)
	}

	if len(res.Trades) == 0 {
		return res, ErrNoValidRows
	}
	return res, nil
}

func toTrade(field func(string) string) (models.Trade, error) {
	var t models.Trade

	switch strings.ToLower(field("trade_type")) {
	case "buy", "b", "2":
		t.TradeType = models.TradeTypeBuy
	case "sell", "s", "3":
		t.TradeType = models.TradeTypeSell
	default:
		return t, fmt.Errorf("unknown trade type %q", field("trade_type"))
	}

	tradeDate, err := validation.ValidateDateString(field("trade_date"), "trade_date")
	if err != nil {
		return t, err
	}
	valueDate, err := validation.ValidateDateString(field("value_date"), "value_date")
	if err != nil {
		return t, err
	}
	t.TradeDate = tradeDate.Format(bondcalc.DateLayout)
	t.ValueDate = valueDate.Format(bondcalc.DateLayout)

	if t.Notional, err = validation.ParseAmount(field("notional"), "notional"); err != nil {
		return t, err
	}
	if t.PriceClean, err = validation.ParseAmount(field("price_clean"), "price_clean"); err != nil {
		return t, err
	}
	if t.TranFee, err = validation.ParseAmount(field("tranfee"), "tranfee"); err != nil {
		return t, err
	}

	t.Counterparty = validation.SanitizeImportedText(field("counterparty"))
	t.BankInvestor = validation.SanitizeImportedText(field("bank_investor"))
	t.Reference = validation.SanitizeImportedText(field("reference"))

	if err := validation.ValidateTradeAmounts(t.Notional, t.PriceClean, t.TranFee); err != nil {
		return t, err
	}
	if err := validation.ValidateTradeParties(t.Counterparty, t.BankInvestor, t.Reference, t.Sales); err != nil {
		return t, err
	}
	return t, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
