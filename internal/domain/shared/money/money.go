package money

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
	ErrInvalidAmount    = errors.New("money: invalid amount")
)

// DefaultCurrency is used when an upstream omits the currency.
const DefaultCurrency = "USD"

// Money keeps amounts in integer minor units (cents) to avoid floating point drift.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(strings.TrimSpace(currency)) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromMajor converts a decimal amount such as 149.99 into minor units.
func FromMajor(amount float64, currency string) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return Money{}, ErrInvalidAmount
	}
	minor := math.Round(amount * 100)
	if minor >= math.MaxInt64 {
		return Money{}, ErrInvalidAmount
	}
	return New(int64(minor), currency)
}

// Zero returns a zero amount in the default currency.
func Zero() Money {
	return Money{Currency: DefaultCurrency}
}

// Major returns the amount in major units.
func (m Money) Major() float64 {
	return float64(m.Amount) / 100
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Compare orders two amounts of the same currency. Mixed currencies compare by amount only.
func (m Money) Compare(other Money) int {
	switch {
	case m.Amount < other.Amount:
		return -1
	case m.Amount > other.Amount:
		return 1
	default:
		return 0
	}
}

// SameCurrency reports whether both values carry the same currency code.
func (m Money) SameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

type wireMoney struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// MarshalJSON renders the price in major units, the shape clients consume.
func (m Money) MarshalJSON() ([]byte, error) {
	currency := m.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return json.Marshal(wireMoney{Amount: m.Major(), Currency: currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var wire wireMoney
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Currency == "" {
		wire.Currency = DefaultCurrency
	}
	parsed, err := FromMajor(wire.Amount, wire.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
