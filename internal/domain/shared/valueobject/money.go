package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Currency represents an ISO 4217 currency code
type Currency string

const (
	BRL Currency = "BRL" // Brazilian Real (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency for purchase orders
const DefaultCurrency = BRL

// ParseCurrency validates an ISO 4217 code and returns its canonical form
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("currency cannot be empty")
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("invalid currency %q: %w", code, err)
	}
	return Currency(unit.String()), nil
}

// MinorUnits returns the number of decimal places used by the currency
// (2 for BRL, 0 for JPY). Unknown codes fall back to 2.
func (c Currency) MinorUnits() int32 {
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// Money is an immutable monetary amount in a single currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, code string) (Money, error) {
	cur, err := ParseCurrency(code)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: cur}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount, code string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, code)
}

// MustMoney creates Money and panics on an invalid currency; for constants and tests
func MustMoney(amount decimal.Decimal, code string) Money {
	m, err := NewMoney(amount, code)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// String returns the amount at the currency's precision followed by the code
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.MinorUnits()), m.currency)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.String(),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler; the currency is validated
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
