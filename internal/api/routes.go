package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridbot/internal/api/handlers"
	"gridbot/internal/api/middleware"
	"gridbot/internal/service"
	"gridbot/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	ExchangeService service.ExchangeServiceInterface
	MarketService   service.MarketServiceInterface
	GridService     service.GridServiceInterface
	OrderService    service.OrderServiceInterface

	// Hub для real-time обновлений; может быть nil
	Hub *websocket.Hub

	// Токен админских операций (middleware.AdminAuth); хеш имеет
	// приоритет, если задан
	AdminToken     string
	AdminTokenHash string
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/ (требует Authorization: Bearer <admin token>)
//
//	├── /exchanges/
//	│   ├── POST / - регистрация биржи
//	│   ├── GET / - список бирж
//	│   ├── POST /{id}/accounts - привязка API-ключей
//	│   ├── POST /{id}/markets/sync - синхронизация рынков
//	│   └── GET /{id}/markets - каталог рынков биржи
//	├── /gridbots/
//	│   ├── POST / - создание сеточного бота
//	│   ├── GET /{id} - параметры бота
//	│   ├── POST /{id}/orders - генерация лестницы
//	│   ├── GET /{id}/orders - ордера бота
//	│   └── POST /{id}/deactivate - деактивация
//	└── /orders/
//	    ├── GET /{id} - состояние ордера
//	    ├── POST /{id}/submit - отправка на биржу
//	    └── POST /{id}/refresh - принудительная сверка
//
// /ws/
//
//	└── /stream - WebSocket для real-time обновлений
//
// /metrics - Prometheus метрики
// /health - health check
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. AdminAuth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// API v1 routes, защищены статическим admin токеном
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.AdminAuth(deps.AdminToken, deps.AdminTokenHash))

	// nil *Hub нельзя передавать в интерфейсный параметр напрямую:
	// получится ненулевой интерфейс с nil указателем внутри
	var marketHub handlers.MarketSyncBroadcaster
	var botHub handlers.BotEventBroadcaster
	var orderHub handlers.OrderBroadcaster
	if deps.Hub != nil {
		marketHub = deps.Hub
		botHub = deps.Hub
		orderHub = deps.Hub
	}

	// Exchange routes
	if deps.ExchangeService != nil && deps.MarketService != nil {
		exchangeHandler := handlers.NewExchangeHandler(deps.ExchangeService, deps.MarketService, marketHub)
		api.HandleFunc("/exchanges", exchangeHandler.CreateExchange).Methods("POST")
		api.HandleFunc("/exchanges", exchangeHandler.GetExchanges).Methods("GET")
		api.HandleFunc("/exchanges/{id}/accounts", exchangeHandler.CreateAccount).Methods("POST")
		api.HandleFunc("/exchanges/{id}/markets/sync", exchangeHandler.SyncMarkets).Methods("POST")
		api.HandleFunc("/exchanges/{id}/markets", exchangeHandler.GetMarkets).Methods("GET")
	}

	// Grid bot routes
	if deps.GridService != nil {
		gridBotHandler := handlers.NewGridBotHandler(deps.GridService, botHub)
		api.HandleFunc("/gridbots", gridBotHandler.CreateGridBot).Methods("POST")
		api.HandleFunc("/gridbots/{id}", gridBotHandler.GetGridBot).Methods("GET")
		api.HandleFunc("/gridbots/{id}/orders", gridBotHandler.CreateOrders).Methods("POST")
		api.HandleFunc("/gridbots/{id}/orders", gridBotHandler.GetOrders).Methods("GET")
		api.HandleFunc("/gridbots/{id}/deactivate", gridBotHandler.DeactivateGridBot).Methods("POST")
	}

	// Order routes
	if deps.OrderService != nil {
		orderHandler := handlers.NewOrderHandler(deps.OrderService, orderHub)
		api.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods("GET")
		api.HandleFunc("/orders/{id}/submit", orderHandler.SubmitOrder).Methods("POST")
		api.HandleFunc("/orders/{id}/refresh", orderHandler.RefreshOrder).Methods("POST")
	}

	// WebSocket route
	if deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
