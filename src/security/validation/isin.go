package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const isinLength = 12

// validCountryCodes are the ISO 3166 prefixes accepted on an ISIN, plus XS for
// international securities cleared through Euroclear and Clearstream.
var validCountryCodes = toSet(strings.Fields(`
	AD AE AF AG AI AL AM AO AQ AR AS AT AU AW AX AZ BA BB BD BE BF BG BH BI BJ BL BM BN BO BQ BR BS
	BT BV BW BY BZ CA CC CD CF CG CH CI CK CL CM CN CO CR CU CV CW CX CY CZ DE DJ DK DM DO DZ EC EE
	EG EH ER ES ET FI FJ FK FM FO FR GA GB GD GE GF GG GH GI GL GM GN GP GQ GR GS GT GU GW GY HK HM
	HN HR HT HU ID IE IL IM IN IO IQ IR IS IT JE JM JO JP KE KG KH KI KM KN KP KR KW KY KZ LA LB LC
	LI LK LR LS LT LU LV LY MA MC MD ME MF MG MH MK ML MM MN MO MP MQ MR MS MT MU MV MW MX MY MZ NA
	NC NE NF NG NI NL NO NP NR NU NZ OM PA PE PF PG PH PK PL PM PN PR PS PT PW PY QA RE RO RS RU RW
	SA SB SC SD SE SG SH SI SJ SK SL SM SN SO SR SS ST SV SX SY SZ TC TD TF TG TH TJ TK TL TM TN TO
	TR TT TV TW TZ UA UG UM US UY UZ VA VC VE VG VI VN VU WF WS YE YT ZA ZM ZW XS`))

// validSecurityTypes is the set of instrument letters the desk issues under.
var validSecurityTypes = toSet([]string{"E", "D", "C", "R", "F", "W", "M", "T", "A"})

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// ParseISIN removes whitespace and upper-cases the input.
func ParseISIN(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// CalculateISINCheckDigit returns the check digit for the first 11 characters of
// an ISIN. Letters expand to two digits (A=10 … Z=35) and the Luhn sum doubles
// every second digit starting from the rightmost.
func CalculateISINCheckDigit(payload string) (string, error) {
	var digits strings.Builder
	for _, r := range strings.ToUpper(payload) {
		switch {
		case r >= 'A' && r <= 'Z':
			digits.WriteString(strconv.Itoa(int(r-'A') + 10))
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		default:
			return "", fmt.Errorf("%w: ISIN contains invalid character %q", ErrValidationFailed, r)
		}
	}

	s := digits.String()
	sum := 0
	double := true
	for i := len(s) - 1; i >= 0; i-- {
		d := int(s[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return strconv.Itoa((10 - sum%10) % 10), nil
}

// ValidateISIN checks structure and check digit, returning the normalized ISIN.
func ValidateISIN(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: ISIN is required", ErrValidationFailed)
	}
	isin := ParseISIN(value)
	if len(isin) != isinLength {
		return isin, fmt.Errorf("%w: ISIN must be exactly %d characters", ErrValidationFailed, isinLength)
	}

	country, secType, number, check := isin[:2], isin[2:3], isin[3:11], isin[11:]
	if !validCountryCodes[country] {
		return isin, fmt.Errorf("%w: invalid country code: %s", ErrValidationFailed, country)
	}
	if !validSecurityTypes[secType] {
		return isin, fmt.Errorf("%w: invalid security type: %s", ErrValidationFailed, secType)
	}
	if !alphanumericRegex.MatchString(number) {
		return isin, fmt.Errorf("%w: security number must be 8 alphanumeric characters", ErrValidationFailed)
	}
	if check[0] < '0' || check[0] > '9' {
		return isin, fmt.Errorf("%w: check digit must be a single number (0-9)", ErrValidationFailed)
	}

	expected, err := CalculateISINCheckDigit(isin[:11])
	if err != nil {
		return isin, err
	}
	if check != expected {
		return isin, fmt.Errorf("%w: invalid check digit, expected %s, got %s", ErrValidationFailed, expected, check)
	}
	return isin, nil
}

// FormatISIN renders an ISIN, complete or partial, as "XX X XXXXXXXX X".
func FormatISIN(value string) string {
	isin := ParseISIN(value)
	if isin == "" {
		return ""
	}
	cut := func(from, to int) string {
		if to > len(isin) {
			to = len(isin)
		}
		return isin[from:to]
	}

	formatted := cut(0, 2)
	if len(isin) >= 3 {
		formatted += " " + cut(2, 3)
	}
	if len(isin) >= 4 {
		formatted += " " + cut(3, 11)
	}
	if len(isin) >= 12 {
		formatted += " " + cut(11, 12)
	}
	return formatted
}

// AutoCompleteISIN appends the check digit to an 11 character payload. Other
// inputs are returned normalized but otherwise unchanged.
func AutoCompleteISIN(partial string) string {
	isin := ParseISIN(partial)
	if len(isin) != isinLength-1 {
		return isin
	}
	check, err := CalculateISINCheckDigit(isin)
	if err != nil {
		return isin
	}
	return isin + check
}
