package blotter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/compartmentdesk/backend/src/models"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"trade_type,trade_date,value_date,notional,price_clean,tranfee,counterparty,bank_investor,reference",
		"Buy,2024-07-10,2024-08-01,1000000,99.5,0.001,Bank A,Fund 1,REF-1",
		`Sell,15-07-2024,17-07-2024,"250000,50",101,,=HYPERLINK(1),Fund 2,`,
		",,,,,,,,",
		"Hold,2024-07-10,2024-08-01,1,1,0,Bank A,Fund 1,",
		"Buy,2024-13-10,2024-08-01,1,1,0,Bank A,Fund 1,",
	}, "\n")

	res, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	buy := res.Trades[0]
	assert.Equal(t, models.TradeTypeBuy, buy.TradeType)
	assert.Equal(t, "2024-07-10", buy.TradeDate)
	assert.Equal(t, 1_000_000.0, buy.Notional)
	assert.Equal(t, 0.001, buy.TranFee)
	assert.Equal(t, "REF-1", buy.Reference)

	sell := res.Trades[1]
	assert.Equal(t, models.TradeTypeSell, sell.TradeType)
	assert.Equal(t, "2024-07-15", sell.TradeDate)
	assert.Equal(t, 250_000.5, sell.Notional)
	assert.Zero(t, sell.TranFee)
	assert.True(t, strings.HasPrefix(sell.Counterparty, "'="), sell.Counterparty)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 5, res.Skipped[0].Line)
	assert.Contains(t, res.Skipped[0].Reason, "unknown trade type")
	assert.Equal(t, 6, res.Skipped[1].Line)
}

func TestParse_ColumnOrderIsFree(t *testing.T) {
	input := "counterparty,bank_investor,notional,value_date,trade_date,trade_type\n" +
		"Bank A,Fund 1,500000,2024-08-01,2024-07-30,sell\n"

	res, err := NewParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, models.TradeTypeSell, res.Trades[0].TradeType)
	assert.Equal(t, 500_000.0, res.Trades[0].Notional)
	assert.Zero(t, res.Trades[0].PriceClean)
}

func TestParse_Errors(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader("trade_type,trade_date\nBuy,2024-07-10\n"))
	assert.ErrorIs(t, err, ErrMissingColumns)

	_, err = NewParser().Parse(strings.NewReader(""))
	assert.Error(t, err)

	header := strings.Join(Columns, ",")
	res, err := NewParser().Parse(strings.NewReader(header + "\nHold,2024-07-10,2024-08-01,1,1,0,A,B,\n"))
	assert.ErrorIs(t, err, ErrNoValidRows)
	require.NotNil(t, res)
	assert.Len(t, res.Skipped, 1)
}

func TestParse_RowsFollowTradeRules(t *testing.T) {
	header := strings.Join(Columns, ",")
	rows := []string{
		"Buy,2024-07-10,2024-08-01,NaN,99.5,0,Bank A,Fund 1,",
		"Buy,2024-07-10,2024-08-01,+Inf,99.5,0,Bank A,Fund 1,",
		"Buy,2024-07-10,2024-08-01,0,99.5,0,Bank A,Fund 1,",
		"Buy,2024-07-10,2024-08-01,1000,-1,0,Bank A,Fund 1,",
		"Buy,2024-07-10,2024-08-01,1000,99.5,1,Bank A,Fund 1,",
		"Buy,2024-07-10,2024-08-01,1000,99.5,0,,Fund 1,",
		"Buy,2024-07-10,2024-08-01,1000,99.5,0,Bank A,Fund 1," + strings.Repeat("x", 101),
		"Buy,2024-07-10,2024-08-01,1000,99.5,0,Bank A,Fund 1,OK",
	}

	res, err := NewParser().Parse(strings.NewReader(header + "\n" + strings.Join(rows, "\n")))
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "OK", res.Trades[0].Reference)

	reasons := []string{"not a valid number", "not a valid number", "notional", "price_clean", "tranfee", "counterparty", "reference"}
	require.Len(t, res.Skipped, len(reasons))
	for i, want := range reasons {
		assert.Equal(t, i+2, res.Skipped[i].Line)
		assert.Contains(t, res.Skipped[i].Reason, want)
	}
}
