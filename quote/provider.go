// Package quote looks up current stock prices.
package quote

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a symbol is unknown or the provider cannot answer.
var ErrNotFound = errors.New("quote not found")

type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// Normalize trims a ticker and upper-cases it.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
