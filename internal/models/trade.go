package models

import "time"

// Trade фиксирует фактическое исполнение, связанное с ордером
//
// Сверка помечает ордера FILLED/PARTIALLY_FILLED без связанного Trade
// как кандидатов на создание записи; само создание - именованная точка
// расширения (см. internal/bot reconciler).
type Trade struct {
	ID        int       `json:"id" db:"id"`
	OrderID   int       `json:"order_id" db:"order_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
