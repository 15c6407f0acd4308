package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GridBot представляет сеточного бота - лестницу buy-ордеров
// с равным шагом цены внутри ограниченного диапазона
//
// Генерируемые ордера всегда side=BUY (сетка заполняет нижнюю
// половину диапазона). active=false отключает бота: ни генерации
// ордеров, ни сверки. Повторная активация не реализована.
type GridBot struct {
	ID          int             `json:"id" db:"id"`
	AccountID   int             `json:"account_id" db:"account_id"`
	MarketID    int             `json:"market_id" db:"market_id"`
	Investment  decimal.Decimal `json:"investment" db:"investment"`       // в котируемой валюте
	NoGridLines int             `json:"no_grid_lines" db:"no_grid_lines"` // чётное, >= 2
	UpperPrice  decimal.Decimal `json:"upper_price" db:"upper_price"`
	LowerPrice  decimal.Decimal `json:"lower_price" db:"lower_price"` // строго < UpperPrice
	Active      bool            `json:"active" db:"active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// LegCount возвращает количество ступеней лестницы (no_grid_lines // 2)
func (b *GridBot) LegCount() int {
	return b.NoGridLines / 2
}
