package websocket

import (
	"time"

	"gridbot/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeOrderUpdate - изменение состояния ордера
	// Отправляется после каждой сверки с биржей
	MessageTypeOrderUpdate MessageType = "orderUpdate"

	// MessageTypeBotUpdate - изменение сеточного бота
	// Отправляется при создании лестницы и деактивации
	MessageTypeBotUpdate MessageType = "botUpdate"

	// MessageTypeMarketSync - завершение синхронизации каталога рынков
	MessageTypeMarketSync MessageType = "marketSync"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderUpdateMessage - сообщение об изменении состояния ордера
//
// Содержит сам ордер: state, remote_id, comments и неизменяемые
// price/amount. Ключи аккаунта в Order не присутствуют.
type OrderUpdateMessage struct {
	BaseMessage
	OrderID int           `json:"order_id"`
	Data    *models.Order `json:"data"`
}

// BotUpdateMessage - сообщение об изменении сеточного бота
type BotUpdateMessage struct {
	BaseMessage
	GridBotID int `json:"grid_bot_id"`

	// Событие: ladder_created, deactivated
	Event string `json:"event"`

	// Количество ступеней (для ladder_created)
	OrderCount int `json:"order_count,omitempty"`
}

// MarketSyncMessage - сообщение о завершении синхронизации рынков
type MarketSyncMessage struct {
	BaseMessage
	ExchangeID int `json:"exchange_id"`
	Attached   int `json:"attached"`
}

// ============ Фабричные функции для создания сообщений ============

// NewOrderUpdateMessage создает сообщение обновления ордера
func NewOrderUpdateMessage(order *models.Order) *OrderUpdateMessage {
	return &OrderUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeOrderUpdate,
			Timestamp: time.Now(),
		},
		OrderID: order.ID,
		Data:    order,
	}
}

// NewBotUpdateMessage создает сообщение обновления бота
func NewBotUpdateMessage(gridBotID int, event string, orderCount int) *BotUpdateMessage {
	return &BotUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeBotUpdate,
			Timestamp: time.Now(),
		},
		GridBotID:  gridBotID,
		Event:      event,
		OrderCount: orderCount,
	}
}

// NewMarketSyncMessage создает сообщение о синхронизации рынков
func NewMarketSyncMessage(exchangeID, attached int) *MarketSyncMessage {
	return &MarketSyncMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeMarketSync,
			Timestamp: time.Now(),
		},
		ExchangeID: exchangeID,
		Attached:   attached,
	}
}
