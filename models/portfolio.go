package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeType string

const (
	Buy  TradeType = "buy"
	Sell TradeType = "sell"
)

// Transaction is one line of the append-only trade ledger.
// Quantity is signed: positive for buys, negative for sells, so the net
// holding of a symbol is the plain sum of its quantities.
// TotalAmount is the trade value |Quantity| * Price in whole cents, rounded up
// for buys and down for sells.
type Transaction struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"index;not null"`
	Type        TradeType       `gorm:"type:varchar(4);not null"`
	Symbol      string          `gorm:"index;not null"`
	Quantity    int64           `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(24,4);not null"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(24,2);not null"`
	CreatedAt   time.Time
}

// Shares is the absolute number of shares moved by the transaction.
func (t Transaction) Shares() int64 {
	if t.Quantity < 0 {
		return -t.Quantity
	}
	return t.Quantity
}

type Portfolio struct {
	Positions   []Position
	Cash        decimal.Decimal
	StocksValue decimal.Decimal
	GrandTotal  decimal.Decimal
}
