package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Состояния ордера
//
// Жизненный цикл:
//
//	WAITING_TO_SUBMIT → WAITING → PARTIALLY_FILLED → PARTIALLY_FILLED_AND_FINISHED
//	                                               → FILLED | CANCELED | ERROR | IDLE
//
// FILLED и CANCELED терминальны. ERROR терминален и снимается только
// внешним вмешательством. IDLE - безопасное состояние для нераспознанного
// статуса биржи.
const (
	OrderStateWaitingToSubmit            = "WAITING_TO_SUBMIT"
	OrderStateWaiting                    = "WAITING"
	OrderStatePartiallyFilled            = "PARTIALLY_FILLED"
	OrderStatePartiallyFilledAndFinished = "PARTIALLY_FILLED_AND_FINISHED"
	OrderStateFilled                     = "FILLED"
	OrderStateCanceled                   = "CANCELED"
	OrderStateError                      = "ERROR"
	OrderStateIdle                       = "IDLE"
)

// Стороны ордера
const (
	OrderSideBuy  = "BUY"
	OrderSideSell = "SELL"
)

// ActiveOrderStates - состояния, в которых ордер ещё может быть исполнен
// (не разрешён). Всё вне этого набора считается разрешённым/терминальным
// для целей сверки.
var ActiveOrderStates = []string{
	OrderStateWaitingToSubmit,
	OrderStateWaiting,
	OrderStatePartiallyFilled,
}

// IsActiveOrderState возвращает true, если состояние входит в активный набор
func IsActiveOrderState(state string) bool {
	for _, s := range ActiveOrderStates {
		if s == state {
			return true
		}
	}
	return false
}

// Order представляет одну ступень сеточной лестницы (или одиночный ордер)
//
// Price и Amount неизменяемы после создания: биржа не поддерживает
// изменение ордера, только cancel/replace. RemoteID присваивается ровно
// один раз - при успешной отправке; пара (remote_id, exchange_id)
// уникальна на уровне БД.
type Order struct {
	ID         int             `json:"id" db:"id"`
	ExchangeID int             `json:"exchange_id" db:"exchange_id"`
	AccountID  int             `json:"account_id" db:"account_id"`
	MarketID   int             `json:"market_id" db:"market_id"`
	GridBotID  sql.NullInt64   `json:"grid_bot_id" db:"grid_bot_id"` // NULL для внесеточных ордеров
	Side       string          `json:"side" db:"side"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	RemoteID   sql.NullInt64   `json:"remote_id" db:"remote_id"` // id ордера на бирже
	State      string          `json:"state" db:"state"`
	Comments   string          `json:"comments" db:"comments"` // журнал ошибок отправки/сверки
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive возвращает true, если ордер ещё не разрешён
func (o *Order) IsActive() bool {
	return IsActiveOrderState(o.State)
}
