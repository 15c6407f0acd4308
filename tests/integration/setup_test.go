// Package integration contains integration tests for the grid trading bot.
//
// These tests verify the correct interaction between components:
// - API integration tests: full HTTP request cycle with admin auth
// - WebSocket tests: connection, broadcast messaging
// - Database tests: repositories against a real PostgreSQL schema
//
// Tests are skipped automatically when the test database is unavailable.
// Configure via TEST_DB_* environment variables.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"gridbot/internal/api"
	"gridbot/internal/config"
	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/internal/repository"
	"gridbot/internal/service"
	"gridbot/internal/websocket"
)

// testEncryptionKey is exactly 32 bytes (AES-256)
const testEncryptionKey = "integration-test-key-32-bytes!!!"

// testAdminToken protects /api/v1 routes in tests
const testAdminToken = "integration-admin-token"

// TestConfig contains configuration for integration tests
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TestServer encapsulates all components needed for integration testing
type TestServer struct {
	DB       *sql.DB
	Router   *mux.Router
	Server   *httptest.Server
	Hub      *websocket.Hub
	Repos    *TestRepositories
	Services *TestServices
	Gateway  *FakeGateway
	Cleanup  func()
}

// TestRepositories contains all repository instances for testing
type TestRepositories struct {
	Currency *repository.CurrencyRepository
	Market   *repository.MarketRepository
	Exchange *repository.ExchangeRepository
	Account  *repository.AccountRepository
	GridBot  *repository.GridBotRepository
	Order    *repository.OrderRepository
	Trade    *repository.TradeRepository
}

// TestServices contains all service instances for testing
type TestServices struct {
	Exchange *service.ExchangeService
	Market   *service.MarketService
	Grid     *service.GridService
	Order    *service.OrderService
}

// FakeGateway replaces the real venue gateway in integration tests.
// Thread-safe: submit and status calls may come from concurrent requests.
type FakeGateway struct {
	mu sync.Mutex

	provider models.Provider

	// Markets returned by FetchMarkets
	Markets []gateway.MarketInfo

	// Status returned by FetchOrderStatus
	Status gateway.RemoteStatus

	// SubmitErr makes SubmitOrder fail when set
	SubmitErr error

	nextRemoteID int64
	Submitted    []gateway.OrderRequest
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Markets: []gateway.MarketInfo{
			{BaseSymbol: "BTC", QuoteSymbol: "USDT"},
			{BaseSymbol: "ETH", QuoteSymbol: "USDT"},
		},
		Status:       gateway.RemoteStatusNew,
		nextRemoteID: 500000,
	}
}

func (g *FakeGateway) Provider() models.Provider {
	return g.provider
}

func (g *FakeGateway) FetchMarkets(ctx context.Context) ([]gateway.MarketInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Markets, nil
}

func (g *FakeGateway) SubmitOrder(ctx context.Context, req gateway.OrderRequest) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.SubmitErr != nil {
		return 0, g.SubmitErr
	}
	g.nextRemoteID++
	g.Submitted = append(g.Submitted, req)
	return g.nextRemoteID, nil
}

func (g *FakeGateway) FetchOrderStatus(ctx context.Context, symbol string, remoteID int64) (gateway.RemoteStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Status, nil
}

// getTestConfig returns configuration from environment variables or defaults
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "gridbot_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupTestDB creates a test database connection
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	cfg := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := sql.Open(cfg.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// SetupTestServer creates a complete test server with all components.
// The venue gateway is replaced by FakeGateway so tests never hit a real
// exchange.
func SetupTestServer(t *testing.T) *TestServer {
	db, dbCleanup := SetupTestDB(t)
	if db == nil {
		return nil
	}

	if err := initTestTables(db); err != nil {
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil
	}
	cleanupTestTables(db)

	// Create WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Create repositories
	repos := &TestRepositories{
		Currency: repository.NewCurrencyRepository(db),
		Market:   repository.NewMarketRepository(db),
		Exchange: repository.NewExchangeRepository(db),
		Account:  repository.NewAccountRepository(db),
		GridBot:  repository.NewGridBotRepository(db),
		Order:    repository.NewOrderRepository(db),
		Trade:    repository.NewTradeRepository(db),
	}

	// Create services with the fake gateway injected
	fake := NewFakeGateway()
	factory := func(provider models.Provider, apiKey, apiSecret string) (gateway.ExchangeGateway, error) {
		fake.provider = provider
		return fake, nil
	}

	botCfg := config.BotConfig{
		ReconcileInterval: time.Second,
		MaxConcurrentBots: 2,
		SubmitTimeout:     5 * time.Second,
		StatusTimeout:     5 * time.Second,
		MaxRetries:        1,
		RetryBackoff:      10 * time.Millisecond,
	}

	services := &TestServices{
		Exchange: service.NewExchangeService(repos.Exchange, repos.Account, testEncryptionKey),
		Market:   service.NewMarketService(repos.Currency, repos.Market, repos.Exchange, repos.Account, testEncryptionKey),
		Grid:     service.NewGridService(repos.GridBot, repos.Account, repos.Market, repos.Order),
		Order:    service.NewOrderService(repos.Order, repos.Account, repos.Market, repos.Exchange, testEncryptionKey, botCfg),
	}
	services.Market.SetGatewayFactory(factory)
	services.Order.SetGatewayFactory(factory)

	// Setup router
	deps := &api.Dependencies{
		ExchangeService: services.Exchange,
		MarketService:   services.Market,
		GridService:     services.Grid,
		OrderService:    services.Order,
		Hub:             hub,
		AdminToken:      testAdminToken,
	}
	router := api.SetupRoutes(deps)

	server := httptest.NewServer(router)

	cleanup := func() {
		server.Close()
		hub.Stop()
		cleanupTestTables(db)
		dbCleanup()
	}

	return &TestServer{
		DB:       db,
		Router:   router,
		Server:   server,
		Hub:      hub,
		Repos:    repos,
		Services: services,
		Gateway:  fake,
		Cleanup:  cleanup,
	}
}

// initTestTables creates tables for testing
func initTestTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS currencies (
			id SERIAL PRIMARY KEY,
			symbol VARCHAR(20) UNIQUE NOT NULL,
			precision INT NOT NULL DEFAULT 8,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS markets (
			id SERIAL PRIMARY KEY,
			first_currency_id INT NOT NULL REFERENCES currencies(id),
			second_currency_id INT NOT NULL REFERENCES currencies(id),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			UNIQUE (first_currency_id, second_currency_id)
		)`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			id SERIAL PRIMARY KEY,
			provider VARCHAR(50) UNIQUE NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS exchange_markets (
			exchange_id INT NOT NULL REFERENCES exchanges(id) ON DELETE CASCADE,
			market_id INT NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (exchange_id, market_id)
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id SERIAL PRIMARY KEY,
			exchange_id INT NOT NULL REFERENCES exchanges(id) ON DELETE CASCADE,
			api_key TEXT NOT NULL,
			api_secret TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS grid_bots (
			id SERIAL PRIMARY KEY,
			account_id INT NOT NULL REFERENCES accounts(id),
			market_id INT NOT NULL REFERENCES markets(id),
			investment DECIMAL(30, 10) NOT NULL,
			no_grid_lines INT NOT NULL,
			upper_price DECIMAL(30, 10) NOT NULL,
			lower_price DECIMAL(30, 10) NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id SERIAL PRIMARY KEY,
			exchange_id INT NOT NULL REFERENCES exchanges(id),
			account_id INT NOT NULL REFERENCES accounts(id),
			market_id INT NOT NULL REFERENCES markets(id),
			grid_bot_id INT REFERENCES grid_bots(id) ON DELETE CASCADE,
			side VARCHAR(10) NOT NULL,
			price DECIMAL(30, 10) NOT NULL,
			amount DECIMAL(30, 10) NOT NULL,
			remote_id BIGINT,
			state VARCHAR(40) NOT NULL,
			comments TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			UNIQUE (remote_id, exchange_id)
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id SERIAL PRIMARY KEY,
			order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// cleanupTestTables truncates all test tables
func cleanupTestTables(db *sql.DB) {
	tables := []string{
		"trades",
		"orders",
		"grid_bots",
		"accounts",
		"exchange_markets",
		"markets",
		"currencies",
		"exchanges",
	}

	for _, table := range tables {
		db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
	}
}
