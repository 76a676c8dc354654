package models

import "github.com/shopspring/decimal"

// Holding is the net share count of one symbol, as aggregated from the ledger.
type Holding struct {
	Symbol string
	Shares int64
}

// Position is a holding valued at the current market price.
// Priced is false when no price could be fetched; Value is then zero.
type Position struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Value  decimal.Decimal
	Priced bool
}
