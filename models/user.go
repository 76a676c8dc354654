package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID        uint            `gorm:"primaryKey"`
	Username  string          `gorm:"uniqueIndex;not null"`
	Hash      string          `gorm:"not null"`
	Cash      decimal.Decimal `gorm:"type:numeric(24,2);not null"`
	CreatedAt time.Time
}
