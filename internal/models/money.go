package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is an amount of currency rendered with exactly two decimal places.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MarshalJSON writes the amount as a quoted string, e.g. "3.50".
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.StringFixed(2))
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// Plus returns the sum as Money.
func (m Money) Plus(d decimal.Decimal) Money {
	return Money{Decimal: m.Add(d)}
}
