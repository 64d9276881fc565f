package validation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateISINCheckDigit(t *testing.T) {
	tests := map[string]string{
		"US037833100": "5", // US0378331005
		"DE000BAY001": "7", // DE000BAY0017
		"PTD12345678": "1",
		"XSD00000001": "3",
		"FRE00000000": "2",
	}
	for payload, want := range tests {
		got, err := CalculateISINCheckDigit(payload)
		require.NoError(t, err, payload)
		assert.Equal(t, want, got, payload)
	}

	_, err := CalculateISINCheckDigit("US03783310-")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestValidateISIN(t *testing.T) {
	got, err := ValidateISIN(" ptd 12345678 1 ")
	require.NoError(t, err)
	assert.Equal(t, "PTD123456781", got)

	_, err = ValidateISIN("XSD000000013")
	assert.NoError(t, err)

	invalid := map[string]string{
		"":             "required",
		"PTD1234567":   "exactly 12",
		"ZZD123456781": "country code",
		"US0378331005": "security type",
		"PTD1234567-1": "alphanumeric",
		"PTD12345678X": "check digit must",
		"PTD123456782": "expected 1",
	}
	for in, msg := range invalid {
		_, err := ValidateISIN(in)
		require.Error(t, err, in)
		assert.ErrorIs(t, err, ErrValidationFailed, in)
		assert.Contains(t, err.Error(), msg, in)
	}
}

func TestFormatAndAutoCompleteISIN(t *testing.T) {
	assert.Equal(t, "PT D 12345678 1", FormatISIN("ptd123456781"))
	assert.Equal(t, "PT D 1234", FormatISIN("PTD1234"))
	assert.Equal(t, "P", FormatISIN("p"))
	assert.Equal(t, "", FormatISIN("   "))

	assert.Equal(t, "PTD123456781", AutoCompleteISIN("PT D 12345678"))
	assert.Equal(t, "PTD1234", AutoCompleteISIN("ptd1234"))
}

func TestNumericValidators(t *testing.T) {
	assert.NoError(t, ValidateNonNegative(0, "notional"))
	assert.ErrorIs(t, ValidateNonNegative(-1, "notional"), ErrValidationFailed)
	assert.ErrorIs(t, ValidatePositive(0, "notional"), ErrValidationFailed)
	assert.NoError(t, ValidatePositive(1, "notional"))

	assert.NoError(t, ValidateFeeFraction(0.001))
	assert.ErrorIs(t, ValidateFeeFraction(1), ErrValidationFailed)
	assert.ErrorIs(t, ValidateFeeFraction(-0.1), ErrValidationFailed)
}

func TestParseAmount(t *testing.T) {
	tests := map[string]float64{
		"1000000":   1_000_000,
		"99,5":      99.5,
		"1.234,56":  1234.56,
		"1,234.56":  1234.56,
		"1 000 000": 1_000_000,
		"":          0,
		"  0.001  ": 0.001,
	}
	for in, want := range tests {
		got, err := ParseAmount(in, "amount")
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}

	for _, in := range []string{"abc", "NaN", "nan", "Inf", "+Inf", "-inf"} {
		_, err := ParseAmount(in, "amount")
		assert.ErrorIs(t, err, ErrValidationFailed, in)
	}
}

func TestTradeRules(t *testing.T) {
	assert.NoError(t, ValidateTradeAmounts(1000, 99.5, 0.001))
	assert.ErrorIs(t, ValidateTradeAmounts(0, 99.5, 0), ErrValidationFailed)
	assert.ErrorIs(t, ValidateTradeAmounts(-500, 99.5, 0), ErrValidationFailed)
	assert.ErrorIs(t, ValidateTradeAmounts(1000, -1, 0), ErrValidationFailed)
	assert.ErrorIs(t, ValidateTradeAmounts(1000, 99.5, 5), ErrValidationFailed)

	assert.NoError(t, ValidateTradeParties("Bank A", "Fund 1", "", ""))
	assert.ErrorIs(t, ValidateTradeParties("", "Fund 1", "", ""), ErrValidationFailed)
	assert.ErrorIs(t, ValidateTradeParties("Bank A", " ", "", ""), ErrValidationFailed)
	assert.ErrorIs(t, ValidateTradeParties("Bank A", "Fund 1", strings.Repeat("r", MaxReferenceLength+1), ""), ErrValidationFailed)
}

func TestValidateDateString(t *testing.T) {
	for _, in := range []string{"2024-08-01", "01-08-2024", "01/08/2024"} {
		d, err := ValidateDateString(in, "value_date")
		require.NoError(t, err, in)
		assert.Equal(t, "2024-08-01", d.Format("2006-01-02"), in)
	}
	_, err := ValidateDateString("2024-02-30", "value_date")
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = ValidateDateString(" ", "value_date")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestStringValidators(t *testing.T) {
	assert.ErrorIs(t, ValidateStringNotEmpty("  ", "counterparty"), ErrValidationFailed)
	assert.ErrorIs(t, ValidateStringMaxLength(strings.Repeat("é", 11), 10, "reference"), ErrValidationFailed)
	assert.NoError(t, ValidateStringMaxLength(strings.Repeat("é", 10), 10, "reference"))
	assert.NoError(t, ValidateCurrencyCode("eur"))
	assert.ErrorIs(t, ValidateCurrencyCode("EURO"), ErrValidationFailed)
}

func TestSanitizers(t *testing.T) {
	assert.Equal(t, "Bank A", SanitizeText("  <b>Bank A</b>\x00 "))
	assert.Equal(t, "'=SUM(A1:A2)", SanitizeForFormulaInjection("=SUM(A1:A2)"))
	assert.Equal(t, "Fund 1", SanitizeForFormulaInjection("Fund 1"))
	assert.Equal(t, "'@cmd", SanitizeImportedText("<i>@cmd</i>"))

	assert.Error(t, CheckXSSPatterns(`<script>alert(1)</script>`, "reference", "t1"))
	assert.NoError(t, CheckXSSPatterns("REF-001", "reference", "t1"))
}

func TestValidateCSVContent(t *testing.T) {
	csv := bytes.NewReader([]byte("trade_type,trade_date\nBuy,2024-07-10\n"))
	require.NoError(t, ValidateCSVContent(csv))
	pos, _ := csv.Seek(0, 1)
	assert.Zero(t, pos, "reader is rewound")

	assert.ErrorIs(t, ValidateCSVContent(bytes.NewReader(nil)), ErrValidationFailed)
	assert.ErrorIs(t, ValidateCSVContent(bytes.NewReader([]byte{'P', 'K', 3, 4, 0, 0})), ErrValidationFailed)

	assert.NoError(t, ValidateClientContentType("text/csv; charset=utf-8"))
	assert.NoError(t, ValidateClientContentType(""))
	assert.ErrorIs(t, ValidateClientContentType("application/pdf"), ErrValidationFailed)
}
