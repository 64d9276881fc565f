// backend/src/bondcalc/frequency.go
package bondcalc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFrequency is returned for coupon frequencies the schedule generator does not know.
var ErrInvalidFrequency = errors.New("invalid coupon frequency")

// CouponFrequency drives the roll-forward step of the coupon schedule.
type CouponFrequency int

const (
	Weekly CouponFrequency = iota + 1
	Monthly
	Quarterly
	SemiAnnual
	Annually
)

// DefaultFrequency is used when an ISIN carries no frequency label.
const DefaultFrequency = SemiAnnual

var frequencyLabels = map[string]CouponFrequency{
	"weekly":        Weekly,
	"monthly":       Monthly,
	"quarterly":     Quarterly,
	"semi-annually": SemiAnnual,
	"semi-annual":   SemiAnnual,
	"semiannual":    SemiAnnual,
	"semiannually":  SemiAnnual,
	"annually":      Annually,
	"annual":        Annually,
	"yearly":        Annually,
}

// ParseFrequency maps the stored frequency label onto a CouponFrequency.
// An empty label falls back to DefaultFrequency.
func ParseFrequency(label string) (CouponFrequency, error) {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return DefaultFrequency, nil
	}
	if f, ok := frequencyLabels[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, label)
}

func (f CouponFrequency) String() string {
	switch f {
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	case Quarterly:
		return "Quarterly"
	case SemiAnnual:
		return "Semi-Annually"
	case Annually:
		return "Annually"
	default:
		return fmt.Sprintf("CouponFrequency(%d)", int(f))
	}
}

// Valid reports whether f is one of the known frequencies.
func (f CouponFrequency) Valid() bool {
	return f >= Weekly && f <= Annually
}

// step advances t by one coupon period. Month arithmetic overflows the way
// time.AddDate does, so Jan 31 + 1 month lands in early March.
func (f CouponFrequency) step(t time.Time) (time.Time, error) {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, 7), nil
	case Monthly:
		return t.AddDate(0, 1, 0), nil
	case Quarterly:
		return t.AddDate(0, 3, 0), nil
	case SemiAnnual:
		return t.AddDate(0, 6, 0), nil
	case Annually:
		return t.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidFrequency, f)
	}
}

func (f CouponFrequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrequency, int(f))
	}
	return []byte(f.String()), nil
}

func (f *CouponFrequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
