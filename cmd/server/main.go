package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gridbot/internal/api"
	"gridbot/internal/bot"
	"gridbot/internal/config"
	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/internal/repository"
	"gridbot/internal/service"
	"gridbot/internal/websocket"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	// Инициализация репозиториев
	currencyRepo := repository.NewCurrencyRepository(db)
	marketRepo := repository.NewMarketRepository(db)
	exchangeRepo := repository.NewExchangeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	gridBotRepo := repository.NewGridBotRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	tradeRepo := repository.NewTradeRepository(db)

	// Инициализация сервисов
	exchangeService := service.NewExchangeService(
		exchangeRepo,
		accountRepo,
		cfg.Security.EncryptionKey,
	)

	marketService := service.NewMarketService(
		currencyRepo,
		marketRepo,
		exchangeRepo,
		accountRepo,
		cfg.Security.EncryptionKey,
	)

	gridService := service.NewGridService(
		gridBotRepo,
		accountRepo,
		marketRepo,
		orderRepo,
	)

	orderService := service.NewOrderService(
		orderRepo,
		accountRepo,
		marketRepo,
		exchangeRepo,
		cfg.Security.EncryptionKey,
		cfg.Bot,
	)

	// WebSocket hub для real-time обновлений
	hub := websocket.NewHub()
	go hub.Run()

	// Цикл сверки ордеров с биржей
	reconciler := bot.NewReconciler(
		&reconcileStore{
			gridBots: gridBotRepo,
			orders:   orderRepo,
			trades:   tradeRepo,
		},
		orderService,
		hub,
		cfg.Bot,
	)

	reconcileCtx, stopReconciler := context.WithCancel(context.Background())
	go reconciler.Run(reconcileCtx)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		ExchangeService: exchangeService,
		MarketService:   marketService,
		GridService:     gridService,
		OrderService:    orderService,
		Hub:             hub,
		AdminToken:      cfg.Security.AdminToken,
		AdminTokenHash:  cfg.Security.AdminTokenHash,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed: %v", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server failed: %v", err)
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Останавливаем фоновые компоненты
	stopReconciler()
	hub.Stop()
	gateway.CloseGlobalClient()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// reconcileStore адаптирует репозитории к bot.ReconcileStore
type reconcileStore struct {
	gridBots *repository.GridBotRepository
	orders   *repository.OrderRepository
	trades   *repository.TradeRepository
}

func (s *reconcileStore) GetActiveGridBots(ctx context.Context) ([]*models.GridBot, error) {
	return s.gridBots.GetActive(ctx)
}

func (s *reconcileStore) GetOrdersForReconciliation(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	return s.orders.GetForReconciliation(ctx, gridBotID)
}

func (s *reconcileStore) TradeExists(ctx context.Context, orderID int) (bool, error) {
	return s.trades.ExistsForOrder(ctx, orderID)
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
