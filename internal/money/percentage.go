package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPercentage is returned when a percentage cannot be parsed or is not finite.
	ErrInvalidPercentage = errors.New("invalid percentage")
	// ErrPercentageOutOfRange is returned when a percentage falls outside [0, 1].
	ErrPercentageOutOfRange = errors.New("percentage out of range")
)

// Percentage is a fraction in [0, 1] held in decimal form so that applying it
// to minor units never passes through binary floating point.
type Percentage struct {
	dec decimal.Decimal
}

// NewPercentage builds a Percentage from a fraction, rejecting non-finite,
// negative, or greater-than-one values.
func NewPercentage(fraction float64) (Percentage, error) {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return Percentage{}, fmt.Errorf("%w: not finite", ErrInvalidPercentage)
	}
	return percentageFromDecimal(decimal.NewFromFloat(fraction))
}

// ParsePercentage reads either a bare fraction ("0.15") or a percent string ("15%").
func ParsePercentage(s string) (Percentage, error) {
	s = strings.TrimSpace(s)
	if trimmed, ok := strings.CutSuffix(s, "%"); ok {
		dec, err := decimal.NewFromString(strings.TrimSpace(trimmed))
		if err != nil {
			return Percentage{}, fmt.Errorf("%w: %q", ErrInvalidPercentage, s)
		}
		return percentageFromDecimal(dec.Shift(-2))
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return Percentage{}, fmt.Errorf("%w: %q", ErrInvalidPercentage, s)
	}
	return percentageFromDecimal(dec)
}

// MustParsePercentage behaves like ParsePercentage but panics on error.
func MustParsePercentage(s string) Percentage {
	p, err := ParsePercentage(s)
	if err != nil {
		panic(err)
	}
	return p
}

func percentageFromDecimal(dec decimal.Decimal) (Percentage, error) {
	if dec.IsNegative() || dec.GreaterThan(decimal.NewFromInt(1)) {
		return Percentage{}, fmt.Errorf("%w: %s", ErrPercentageOutOfRange, dec)
	}
	return Percentage{dec: dec}, nil
}

// Complement returns 1 - p.
func (p Percentage) Complement() Percentage {
	return Percentage{dec: decimal.NewFromInt(1).Sub(p.dec)}
}

// IsZero reports whether the percentage is exactly 0.
func (p Percentage) IsZero() bool { return p.dec.IsZero() }

// IsOne reports whether the percentage is exactly 1.
func (p Percentage) IsOne() bool { return p.dec.Equal(decimal.NewFromInt(1)) }

// String renders the fraction as a percent string, e.g. "15%".
func (p Percentage) String() string {
	return p.dec.Shift(2).String() + "%"
}
