package models

import "time"

// Market представляет торговую пару - упорядоченную пару валют (base/quote)
//
// Уникальна по паре (first_currency_id, second_currency_id).
// Создаётся лениво при синхронизации каталога рынков или создании ордера.
type Market struct {
	ID               int       `json:"id" db:"id"`
	FirstCurrencyID  int       `json:"first_currency_id" db:"first_currency_id"`   // базовая валюта
	SecondCurrencyID int       `json:"second_currency_id" db:"second_currency_id"` // котируемая валюта
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	// Заполняются JOIN'ом в MarketRepository.GetByID / GetBySymbols
	FirstCurrency  *Currency `json:"first_currency,omitempty" db:"-"`
	SecondCurrency *Currency `json:"second_currency,omitempty" db:"-"`
}

// Symbol возвращает биржевой символ пары (BTCUSDT)
//
// Требует загруженных валют. Для пары без JOIN'а возвращает пустую строку.
func (m *Market) Symbol() string {
	if m.FirstCurrency == nil || m.SecondCurrency == nil {
		return ""
	}
	return m.FirstCurrency.Symbol + m.SecondCurrency.Symbol
}
