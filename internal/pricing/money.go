// Package pricing turns the content document's price sections into display
// rows scaled by the current audience multiplier.
package pricing

import (
	"laserwave.studio/web/internal/content"
	"laserwave.studio/web/internal/format"
)

// Money is an amount that may be unavailable.
type Money struct {
	Amount float64
	Valid  bool
}

// Unavailable is the zero Money.
var Unavailable = Money{}

// Of returns a valid Money.
func Of(amount float64) Money { return Money{Amount: amount, Valid: true} }

// FromNumber converts a content number, keeping its set/unset state.
func FromNumber(n content.Number) Money {
	if !n.Set {
		return Unavailable
	}
	return Of(n.Value)
}

// Scale multiplies a valid amount; unavailable stays unavailable.
func (m Money) Scale(multiplier float64) Money {
	if !m.Valid {
		return m
	}
	return Of(m.Amount * multiplier)
}

// String formats the amount in roubles, or the unknown glyph.
func (m Money) String() string {
	if !m.Valid {
		return format.Unknown
	}
	return format.Currency(m.Amount)
}
