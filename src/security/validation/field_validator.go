package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/username/compartmentdesk/backend/src/logger"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxReferenceLength     = 100
	MaxCounterpartyLength  = 255
	MaxSalesLength         = 255
)

var (
	alphanumericRegex = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks the UTF-8 character count of s.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateNonNegative rejects negative and non-finite amounts.
func ValidateNonNegative(v float64, fieldName string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrValidationFailed, fieldName)
	}
	if v < 0 {
		logger.L.Warn("Negative value not allowed for field", "field", fieldName, "value", v)
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidatePositive rejects zero as well as negative amounts.
func ValidatePositive(v float64, fieldName string) error {
	if err := ValidateNonNegative(v, fieldName); err != nil {
		return err
	}
	if v == 0 {
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateFeeFraction checks a transaction fee expressed as a fraction of notional.
func ValidateFeeFraction(v float64) error {
	if err := ValidateNonNegative(v, "tranfee"); err != nil {
		return err
	}
	if v >= 1 {
		return fmt.Errorf("%w: tranfee is a fraction of notional and must be below 1, got %g", ErrValidationFailed, v)
	}
	return nil
}

// ParseAmount parses a number that may use a decimal comma. Empty input is 0.
func ParseAmount(s, fieldName string) (float64, error) {
	trimmed := NormalizeDecimalString(s)
	if trimmed == "" {
		return 0, nil
	}
	val, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %s ('%s') is not a valid number", ErrValidationFailed, fieldName, s)
	}
	return val, nil
}

// ValidateTradeAmounts applies the notional, clean price and fee rules of a trade.
func ValidateTradeAmounts(notional, priceClean, tranFee float64) error {
	if err := ValidatePositive(notional, "notional"); err != nil {
		return err
	}
	if err := ValidateNonNegative(priceClean, "price_clean"); err != nil {
		return err
	}
	return ValidateFeeFraction(tranFee)
}

// ValidateTradeParties checks the free text of a trade after sanitizing.
// Counterparty and bank/investor are required.
func ValidateTradeParties(counterparty, bankInvestor, reference, sales string) error {
	checks := []struct {
		value string
		name  string
		max   int
	}{
		{counterparty, "counterparty", MaxCounterpartyLength},
		{bankInvestor, "bank_investor", DefaultMaxStringLength},
		{reference, "reference", MaxReferenceLength},
		{sales, "sales", MaxSalesLength},
	}
	for _, c := range checks {
		if err := ValidateStringMaxLength(c.value, c.max, c.name); err != nil {
			return err
		}
	}
	if err := ValidateStringNotEmpty(counterparty, "counterparty"); err != nil {
		return err
	}
	return ValidateStringNotEmpty(bankInvestor, "bank_investor")
}

// NormalizeDecimalString turns "1.234,56" and "1234,56" into "1234.56".
func NormalizeDecimalString(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, " ", ""))
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") && strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		} else if strings.Contains(s, ".") {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ",", ".")
	}
	return s
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// ValidateDateString accepts YYYY-MM-DD, DD-MM-YYYY or DD/MM/YYYY and returns the date.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD)", ErrValidationFailed, fieldName, s)
}

// ValidateCurrencyCode checks if currency code is 3 uppercase letters. Empty is allowed.
func ValidateCurrencyCode(s string) error {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return nil
	}
	if !currencyCodeRegex.MatchString(trimmed) {
		return fmt.Errorf("%w: currency code ('%s') must be 3 letters", ErrValidationFailed, s)
	}
	return nil
}
