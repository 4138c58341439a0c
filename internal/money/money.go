package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCurrency is returned when a currency code is not a 3-letter ISO code.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrCurrencyMismatch is returned when arithmetic mixes two currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidAmount is returned when a money literal cannot be parsed.
	ErrInvalidAmount = errors.New("invalid money amount")
)

// Money is a monetary value in integer minor units (pence, cents) tagged with
// its 3-letter ISO currency code.
type Money struct {
	amount   int64
	currency string
}

// New constructs a Money value after validating the currency code.
func New(amount int64, currency string) (Money, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: code}, nil
}

// MustNew behaves like New but panics on error. Useful for tests and fixtures.
func MustNew(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero value in the given currency.
func Zero(currency string) (Money, error) {
	return New(0, currency)
}

// Parse reads a money literal of the form "<decimal> <ISO-code>", e.g. "2.99 GBP".
// The decimal part may carry at most two fraction digits.
func Parse(literal string) (Money, error) {
	fields := strings.Fields(strings.TrimSpace(literal))
	if len(fields) != 2 {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, literal)
	}
	dec, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, literal)
	}
	minor := dec.Shift(2)
	if !minor.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q has sub-minor-unit precision", ErrInvalidAmount, literal)
	}
	return New(minor.IntPart(), fields[1])
}

// MustParse behaves like Parse but panics on error.
func MustParse(literal string) Money {
	m, err := Parse(literal)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the value in minor units.
func (m Money) Amount() int64 { return m.amount }

// Currency returns the ISO currency code.
func (m Money) Currency() string { return m.currency }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// Add returns m + o, failing on mixed currencies.
func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount + o.amount, currency: m.currency}, nil
}

// Sub returns m - o, failing on mixed currencies. The result may be negative.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount - o.amount, currency: m.currency}, nil
}

// SubFloor returns max(0, m - o), failing on mixed currencies.
func (m Money) SubFloor(o Money) (Money, error) {
	r, err := m.Sub(o)
	if err != nil {
		return Money{}, err
	}
	if r.amount < 0 {
		r.amount = 0
	}
	return r, nil
}

// Mul scales the amount by the given percentage, rounding half-to-even.
func (m Money) Mul(p Percentage) Money {
	scaled := decimal.NewFromInt(m.amount).Mul(p.dec).RoundBank(0)
	return Money{amount: scaled.IntPart(), currency: m.currency}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, +1 if m > o.
// Comparing mixed currencies is a programming error and panics.
func (m Money) Cmp(o Money) int {
	if err := m.sameCurrency(o); err != nil {
		panic(err)
	}
	switch {
	case m.amount < o.amount:
		return -1
	case m.amount > o.amount:
		return 1
	default:
		return 0
	}
}

// Equal reports whether both amount and currency match.
func (m Money) Equal(o Money) bool {
	return m.amount == o.amount && m.currency == o.currency
}

// String renders the value as a fixture-compatible literal, e.g. "2.99 GBP".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", decimal.New(m.amount, -2).StringFixed(2), m.currency)
}

func (m Money) sameCurrency(o Money) error {
	if m.currency != o.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, o.currency)
	}
	return nil
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
	}
	return code, nil
}

// Sum adds a list of values, all of which must share a currency. The currency
// of the first element wins; an empty list is an error because the currency
// cannot be determined.
func Sum(values []Money) (Money, error) {
	if len(values) == 0 {
		return Money{}, errors.New("no values provided; cannot determine currency")
	}
	total := Money{amount: 0, currency: values[0].currency}
	for _, v := range values {
		var err error
		total, err = total.Add(v)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
