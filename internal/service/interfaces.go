package service

import (
	"context"

	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/internal/repository"
)

// CurrencyRepositoryInterface определяет интерфейс репозитория валют
type CurrencyRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*models.Currency, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Currency, error)
	GetOrCreate(ctx context.Context, symbol string) (*models.Currency, error)
}

// MarketRepositoryInterface определяет интерфейс репозитория рынков
type MarketRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*models.Market, error)
	GetByCurrencies(ctx context.Context, firstCurrencyID, secondCurrencyID int) (*models.Market, error)
	GetOrCreate(ctx context.Context, firstCurrencyID, secondCurrencyID int) (*models.Market, error)
	AttachToExchange(ctx context.Context, exchangeID, marketID int) error
	GetByExchange(ctx context.Context, exchangeID int) ([]*models.Market, error)
}

// ExchangeRepositoryInterface определяет интерфейс репозитория бирж
type ExchangeRepositoryInterface interface {
	Create(ctx context.Context, exchange *models.Exchange) error
	GetByID(ctx context.Context, id int) (*models.Exchange, error)
	GetByProvider(ctx context.Context, provider models.Provider) (*models.Exchange, error)
	GetAll(ctx context.Context) ([]*models.Exchange, error)
}

// AccountRepositoryInterface определяет интерфейс репозитория аккаунтов
type AccountRepositoryInterface interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int) (*models.Account, error)
	GetFirstByExchange(ctx context.Context, exchangeID int) (*models.Account, error)
}

// GridBotRepositoryInterface определяет интерфейс репозитория сеточных ботов
type GridBotRepositoryInterface interface {
	Create(ctx context.Context, gb *models.GridBot) error
	GetByID(ctx context.Context, id int) (*models.GridBot, error)
	GetActive(ctx context.Context) ([]*models.GridBot, error)
	Deactivate(ctx context.Context, id int) error
}

// OrderRepositoryInterface определяет интерфейс репозитория ордеров
type OrderRepositoryInterface interface {
	Create(ctx context.Context, order *models.Order) error
	BulkCreate(ctx context.Context, orders []*models.Order) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByGridBot(ctx context.Context, gridBotID int) ([]*models.Order, error)
	GetForReconciliation(ctx context.Context, gridBotID int) ([]*models.Order, error)
	MarkSubmitted(ctx context.Context, id int, remoteID int64) error
	MarkError(ctx context.Context, id int, comment string) error
	UpdateState(ctx context.Context, id int, state string) error
}

// TradeRepositoryInterface определяет интерфейс репозитория исполнений
type TradeRepositoryInterface interface {
	Create(ctx context.Context, trade *models.Trade) error
	ExistsForOrder(ctx context.Context, orderID int) (bool, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ CurrencyRepositoryInterface = (*repository.CurrencyRepository)(nil)
var _ MarketRepositoryInterface = (*repository.MarketRepository)(nil)
var _ ExchangeRepositoryInterface = (*repository.ExchangeRepository)(nil)
var _ AccountRepositoryInterface = (*repository.AccountRepository)(nil)
var _ GridBotRepositoryInterface = (*repository.GridBotRepository)(nil)
var _ OrderRepositoryInterface = (*repository.OrderRepository)(nil)
var _ TradeRepositoryInterface = (*repository.TradeRepository)(nil)

// GatewayFactory создаёт шлюз биржи по провайдеру и расшифрованным ключам
//
// В продакшене это gateway.New; тесты подставляют фабрику фейков.
type GatewayFactory func(provider models.Provider, apiKey, apiSecret string) (gateway.ExchangeGateway, error)

// ============ Интерфейсы сервисов для Dependency Injection ============

// ExchangeServiceInterface определяет интерфейс сервиса бирж
type ExchangeServiceInterface interface {
	CreateExchange(ctx context.Context, provider models.Provider) (*models.Exchange, error)
	GetAllExchanges(ctx context.Context) ([]*models.Exchange, error)
	CreateAccount(ctx context.Context, exchangeID int, apiKey, apiSecret string) (*models.Account, error)
}

// MarketServiceInterface определяет интерфейс сервиса рынков
type MarketServiceInterface interface {
	GetOrCreateMarket(ctx context.Context, baseSymbol, quoteSymbol string) (*models.Market, error)
	SyncMarkets(ctx context.Context, exchangeID int) (int, error)
	GetMarketsByExchange(ctx context.Context, exchangeID int) ([]*models.Market, error)
}

// GridServiceInterface определяет интерфейс сервиса сеточных ботов
type GridServiceInterface interface {
	CreateGridBot(ctx context.Context, gb *models.GridBot) error
	CreateOrders(ctx context.Context, gridBotID int) ([]*models.Order, error)
	GetByID(ctx context.Context, gridBotID int) (*models.GridBot, error)
	GetOrders(ctx context.Context, gridBotID int) ([]*models.Order, error)
	Deactivate(ctx context.Context, gridBotID int) error
}

// OrderServiceInterface определяет интерфейс сервиса ордеров
type OrderServiceInterface interface {
	Submit(ctx context.Context, orderID int) error
	RefreshState(ctx context.Context, orderID int) (*models.Order, error)
	GetByID(ctx context.Context, orderID int) (*models.Order, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ ExchangeServiceInterface = (*ExchangeService)(nil)
var _ MarketServiceInterface = (*MarketService)(nil)
var _ GridServiceInterface = (*GridService)(nil)
var _ OrderServiceInterface = (*OrderService)(nil)
