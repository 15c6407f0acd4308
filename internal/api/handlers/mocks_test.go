package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gridbot/internal/models"
	"gridbot/internal/repository"
	"gridbot/internal/service"
)

// ErrMockDatabase имитирует недоступность хранилища
var ErrMockDatabase = errors.New("mock database error")

// ============ MockExchangeService ============

type MockExchangeService struct {
	exchanges map[int]*models.Exchange
	accounts  map[int]*models.Account
	nextID    int
	errs      map[string]error
}

func NewMockExchangeService() *MockExchangeService {
	return &MockExchangeService{
		exchanges: make(map[int]*models.Exchange),
		accounts:  make(map[int]*models.Account),
		nextID:    1,
		errs:      make(map[string]error),
	}
}

// SetError устанавливает ошибку для операции: create, list, account
func (m *MockExchangeService) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockExchangeService) CreateExchange(ctx context.Context, provider models.Provider) (*models.Exchange, error) {
	if err := m.errs["create"]; err != nil {
		return nil, err
	}
	for _, e := range m.exchanges {
		if e.Provider == provider {
			return nil, repository.ErrExchangeExists
		}
	}
	exchange := &models.Exchange{ID: m.nextID, Provider: provider}
	m.exchanges[exchange.ID] = exchange
	m.nextID++
	return exchange, nil
}

func (m *MockExchangeService) GetAllExchanges(ctx context.Context) ([]*models.Exchange, error) {
	if err := m.errs["list"]; err != nil {
		return nil, err
	}
	result := make([]*models.Exchange, 0, len(m.exchanges))
	for _, e := range m.exchanges {
		result = append(result, e)
	}
	return result, nil
}

func (m *MockExchangeService) CreateAccount(ctx context.Context, exchangeID int, apiKey, apiSecret string) (*models.Account, error) {
	if err := m.errs["account"]; err != nil {
		return nil, err
	}
	if _, ok := m.exchanges[exchangeID]; !ok {
		return nil, repository.ErrExchangeNotFound
	}
	account := &models.Account{ID: m.nextID, ExchangeID: exchangeID, APIKey: apiKey, APISecret: apiSecret}
	m.accounts[account.ID] = account
	m.nextID++
	return account, nil
}

var _ service.ExchangeServiceInterface = (*MockExchangeService)(nil)

// ============ MockMarketService ============

type MockMarketService struct {
	markets  map[int][]*models.Market
	attached int
	errs     map[string]error
}

func NewMockMarketService() *MockMarketService {
	return &MockMarketService{
		markets: make(map[int][]*models.Market),
		errs:    make(map[string]error),
	}
}

func (m *MockMarketService) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockMarketService) GetOrCreateMarket(ctx context.Context, baseSymbol, quoteSymbol string) (*models.Market, error) {
	if err := m.errs["getorcreate"]; err != nil {
		return nil, err
	}
	return &models.Market{ID: 1}, nil
}

func (m *MockMarketService) SyncMarkets(ctx context.Context, exchangeID int) (int, error) {
	if err := m.errs["sync"]; err != nil {
		return 0, err
	}
	return m.attached, nil
}

func (m *MockMarketService) GetMarketsByExchange(ctx context.Context, exchangeID int) ([]*models.Market, error) {
	if err := m.errs["list"]; err != nil {
		return nil, err
	}
	return m.markets[exchangeID], nil
}

var _ service.MarketServiceInterface = (*MockMarketService)(nil)

// ============ MockGridService ============

type MockGridService struct {
	bots   map[int]*models.GridBot
	orders map[int][]*models.Order
	nextID int
	errs   map[string]error
}

func NewMockGridService() *MockGridService {
	return &MockGridService{
		bots:   make(map[int]*models.GridBot),
		orders: make(map[int][]*models.Order),
		nextID: 1,
		errs:   make(map[string]error),
	}
}

func (m *MockGridService) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockGridService) CreateGridBot(ctx context.Context, gb *models.GridBot) error {
	if err := m.errs["create"]; err != nil {
		return err
	}
	gb.ID = m.nextID
	m.bots[gb.ID] = gb
	m.nextID++
	return nil
}

func (m *MockGridService) CreateOrders(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	if err := m.errs["orders"]; err != nil {
		return nil, err
	}
	gb, ok := m.bots[gridBotID]
	if !ok {
		return nil, repository.ErrGridBotNotFound
	}
	if !gb.Active {
		return nil, service.ErrGridBotInactive
	}
	orders := make([]*models.Order, gb.LegCount())
	for i := range orders {
		orders[i] = &models.Order{
			ID:     m.nextID,
			State:  models.OrderStateWaitingToSubmit,
			Price:  decimal.NewFromInt(int64(100 + i)),
			Amount: decimal.NewFromInt(1),
		}
		m.nextID++
	}
	m.orders[gridBotID] = orders
	return orders, nil
}

func (m *MockGridService) GetByID(ctx context.Context, gridBotID int) (*models.GridBot, error) {
	if err := m.errs["get"]; err != nil {
		return nil, err
	}
	gb, ok := m.bots[gridBotID]
	if !ok {
		return nil, repository.ErrGridBotNotFound
	}
	return gb, nil
}

func (m *MockGridService) GetOrders(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	if err := m.errs["list"]; err != nil {
		return nil, err
	}
	return m.orders[gridBotID], nil
}

func (m *MockGridService) Deactivate(ctx context.Context, gridBotID int) error {
	if err := m.errs["deactivate"]; err != nil {
		return err
	}
	gb, ok := m.bots[gridBotID]
	if !ok {
		return repository.ErrGridBotNotFound
	}
	gb.Active = false
	return nil
}

var _ service.GridServiceInterface = (*MockGridService)(nil)

// ============ MockOrderService ============

type MockOrderService struct {
	orders map[int]*models.Order
	errs   map[string]error
}

func NewMockOrderService() *MockOrderService {
	return &MockOrderService{
		orders: make(map[int]*models.Order),
		errs:   make(map[string]error),
	}
}

func (m *MockOrderService) SetError(op string, err error) {
	m.errs[op] = err
}

func (m *MockOrderService) addOrder(order *models.Order) {
	m.orders[order.ID] = order
}

func (m *MockOrderService) Submit(ctx context.Context, orderID int) error {
	if err := m.errs["submit"]; err != nil {
		return err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if order.State != models.OrderStateWaitingToSubmit {
		return fmt.Errorf("order %d: %w", orderID, service.ErrOrderNotSubmittable)
	}
	order.State = models.OrderStateWaiting
	order.RemoteID.Int64 = 900000 + int64(orderID)
	order.RemoteID.Valid = true
	return nil
}

func (m *MockOrderService) RefreshState(ctx context.Context, orderID int) (*models.Order, error) {
	if err := m.errs["refresh"]; err != nil {
		return nil, err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if !order.RemoteID.Valid {
		return nil, fmt.Errorf("order %d: %w", orderID, service.ErrOrderNotRefreshable)
	}
	return order, nil
}

func (m *MockOrderService) GetByID(ctx context.Context, orderID int) (*models.Order, error) {
	if err := m.errs["get"]; err != nil {
		return nil, err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

var _ service.OrderServiceInterface = (*MockOrderService)(nil)

// ============ MockHub ============

// MockHub фиксирует broadcast вызовы обработчиков
type MockHub struct {
	orderUpdates []int
	botUpdates   []string
	marketSyncs  []int
}

func (m *MockHub) BroadcastOrderUpdate(order *models.Order) {
	m.orderUpdates = append(m.orderUpdates, order.ID)
}

func (m *MockHub) BroadcastBotUpdate(gridBotID int, event string, orderCount int) {
	m.botUpdates = append(m.botUpdates, event)
}

func (m *MockHub) BroadcastMarketSync(exchangeID, attached int) {
	m.marketSyncs = append(m.marketSyncs, exchangeID)
}
