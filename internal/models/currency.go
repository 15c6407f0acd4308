package models

import "time"

// DefaultCurrencyPrecision - точность по умолчанию для валют,
// впервые встреченных в листинге рынков биржи
const DefaultCurrencyPrecision = 8

// Currency представляет валюту (базовую или котируемую)
//
// Создаётся лениво при первой встрече символа в листинге рынков.
// Precision управляет округлением объёмов, номинированных в этой валюте.
type Currency struct {
	ID        int       `json:"id" db:"id"`
	Symbol    string    `json:"symbol" db:"symbol"`       // BTC, USDT, IRT
	Precision int       `json:"precision" db:"precision"` // количество знаков после запятой (>= 0)
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
