// Package gateway предоставляет унифицированный интерфейс для работы с биржами.
package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"gridbot/internal/models"
)

// RemoteStatus - статус ордера в терминах биржи
//
// Набор значений нормализован по спотовому API Tabdeal. Значение
// RemoteStatusFilled - "FILED" - не опечатка в этом коде: биржа
// возвращает исполненный ордер именно с таким написанием, и оно
// сохранено как есть.
type RemoteStatus string

// Статусы ордера на бирже
const (
	RemoteStatusNew                        RemoteStatus = "NEW"
	RemoteStatusFilled                     RemoteStatus = "FILED"
	RemoteStatusPartiallyFilled            RemoteStatus = "PARTIALLY_FILLED"
	RemoteStatusPartiallyFilledAndFinished RemoteStatus = "PARTIALLY_FILLED_AND_FINISHED"
	RemoteStatusCanceled                   RemoteStatus = "CANCELED"
	RemoteStatusError                      RemoteStatus = "ERROR"
)

// MarketInfo - торговая пара из листинга биржи
type MarketInfo struct {
	BaseSymbol  string `json:"base_symbol"`  // BTC
	QuoteSymbol string `json:"quote_symbol"` // USDT
}

// OrderRequest - нормализованные параметры лимитного ордера
//
// Price и Amount сериализуются в формат конкретной биржи
// реализацией шлюза.
type OrderRequest struct {
	Symbol string          // биржевой символ пары (BTCUSDT)
	Side   string          // models.OrderSideBuy / models.OrderSideSell
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// ExchangeGateway определяет контракт шлюза биржи
//
// Одна конкретная реализация на провайдера, выбирается фабрикой New
// по models.Provider. Добавление новой биржи - это новая реализация
// этого же контракта, логика Order/GridBot не меняется.
//
// Реализации не делают внутренних retry: все ошибки отправки
// (авторизация, отклонение параметров, сеть) поднимаются наверх
// как *SubmissionError.
type ExchangeGateway interface {
	// Provider возвращает провайдера шлюза
	Provider() models.Provider

	// FetchMarkets возвращает листинг торговых пар биржи
	FetchMarkets(ctx context.Context) ([]MarketInfo, error)

	// SubmitOrder отправляет лимитный ордер и возвращает id,
	// присвоенный биржей
	SubmitOrder(ctx context.Context, req OrderRequest) (int64, error)

	// FetchOrderStatus возвращает текущий статус ордера на бирже
	FetchOrderStatus(ctx context.Context, symbol string, remoteID int64) (RemoteStatus, error)
}
