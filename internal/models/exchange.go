package models

import "time"

// Provider определяет поддерживаемую биржу
//
// Выбирает реализацию шлюза во время выполнения через фабрику
// (см. internal/gateway) - без иерархий наследования.
type Provider string

// Поддерживаемые провайдеры
const (
	ProviderTabdeal Provider = "tabdeal"
)

// Exchange представляет биржу
//
// Ровно одна запись на провайдера (unique constraint в БД).
// Набор рынков биржи хранится в таблице-связке exchange_markets
// и только растёт - пути удаления нет.
type Exchange struct {
	ID        int       `json:"id" db:"id"`
	Provider  Provider  `json:"provider" db:"provider"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
