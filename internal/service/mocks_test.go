package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/internal/repository"
)

// ============ Mock CurrencyRepository ============

type MockCurrencyRepository struct {
	currencies map[string]*models.Currency
	getErr     error
	nextID     int
}

func NewMockCurrencyRepository() *MockCurrencyRepository {
	return &MockCurrencyRepository{
		currencies: make(map[string]*models.Currency),
		nextID:     1,
	}
}

func (m *MockCurrencyRepository) GetByID(ctx context.Context, id int) (*models.Currency, error) {
	for _, c := range m.currencies {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Currency, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if c, exists := m.currencies[symbol]; exists {
		return c, nil
	}
	return nil, repository.ErrCurrencyNotFound
}

func (m *MockCurrencyRepository) GetOrCreate(ctx context.Context, symbol string) (*models.Currency, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if c, exists := m.currencies[symbol]; exists {
		return c, nil
	}
	c := &models.Currency{
		ID:        m.nextID,
		Symbol:    symbol,
		Precision: models.DefaultCurrencyPrecision,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.currencies[symbol] = c
	return c, nil
}

// ============ Mock MarketRepository ============

type marketKey struct{ first, second int }

type MockMarketRepository struct {
	markets   map[marketKey]*models.Market
	attached  map[[2]int]bool // (exchangeID, marketID)
	getErr    error
	attachErr error
	nextID    int
}

func NewMockMarketRepository() *MockMarketRepository {
	return &MockMarketRepository{
		markets:  make(map[marketKey]*models.Market),
		attached: make(map[[2]int]bool),
		nextID:   1,
	}
}

func (m *MockMarketRepository) GetByID(ctx context.Context, id int) (*models.Market, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, mk := range m.markets {
		if mk.ID == id {
			return mk, nil
		}
	}
	return nil, repository.ErrMarketNotFound
}

func (m *MockMarketRepository) GetByCurrencies(ctx context.Context, firstCurrencyID, secondCurrencyID int) (*models.Market, error) {
	if mk, exists := m.markets[marketKey{firstCurrencyID, secondCurrencyID}]; exists {
		return mk, nil
	}
	return nil, repository.ErrMarketNotFound
}

func (m *MockMarketRepository) GetOrCreate(ctx context.Context, firstCurrencyID, secondCurrencyID int) (*models.Market, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	key := marketKey{firstCurrencyID, secondCurrencyID}
	if mk, exists := m.markets[key]; exists {
		return mk, nil
	}
	mk := &models.Market{
		ID:               m.nextID,
		FirstCurrencyID:  firstCurrencyID,
		SecondCurrencyID: secondCurrencyID,
		CreatedAt:        time.Now(),
	}
	m.nextID++
	m.markets[key] = mk
	return mk, nil
}

func (m *MockMarketRepository) AttachToExchange(ctx context.Context, exchangeID, marketID int) error {
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached[[2]int{exchangeID, marketID}] = true
	return nil
}

func (m *MockMarketRepository) GetByExchange(ctx context.Context, exchangeID int) ([]*models.Market, error) {
	var result []*models.Market
	for _, mk := range m.markets {
		if m.attached[[2]int{exchangeID, mk.ID}] {
			result = append(result, mk)
		}
	}
	return result, nil
}

// addMarket регистрирует готовый рынок с загруженными валютами
func (m *MockMarketRepository) addMarket(mk *models.Market) {
	m.markets[marketKey{mk.FirstCurrencyID, mk.SecondCurrencyID}] = mk
}

// ============ Mock ExchangeRepository ============

type MockExchangeRepository struct {
	exchanges map[int]*models.Exchange
	createErr error
	getErr    error
	nextID    int
}

func NewMockExchangeRepository() *MockExchangeRepository {
	return &MockExchangeRepository{
		exchanges: make(map[int]*models.Exchange),
		nextID:    1,
	}
}

func (m *MockExchangeRepository) Create(ctx context.Context, exchange *models.Exchange) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, e := range m.exchanges {
		if e.Provider == exchange.Provider {
			return repository.ErrExchangeExists
		}
	}
	exchange.ID = m.nextID
	m.nextID++
	exchange.CreatedAt = time.Now()
	m.exchanges[exchange.ID] = exchange
	return nil
}

func (m *MockExchangeRepository) GetByID(ctx context.Context, id int) (*models.Exchange, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if e, exists := m.exchanges[id]; exists {
		return e, nil
	}
	return nil, repository.ErrExchangeNotFound
}

func (m *MockExchangeRepository) GetByProvider(ctx context.Context, provider models.Provider) (*models.Exchange, error) {
	for _, e := range m.exchanges {
		if e.Provider == provider {
			return e, nil
		}
	}
	return nil, repository.ErrExchangeNotFound
}

func (m *MockExchangeRepository) GetAll(ctx context.Context) ([]*models.Exchange, error) {
	result := make([]*models.Exchange, 0, len(m.exchanges))
	for _, e := range m.exchanges {
		result = append(result, e)
	}
	return result, nil
}

// ============ Mock AccountRepository ============

type MockAccountRepository struct {
	accounts  map[int]*models.Account
	createErr error
	getErr    error
	nextID    int
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[int]*models.Account),
		nextID:   1,
	}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	account.ID = m.nextID
	m.nextID++
	account.CreatedAt = time.Now()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if a, exists := m.accounts[id]; exists {
		return a, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) GetFirstByExchange(ctx context.Context, exchangeID int) (*models.Account, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for id := 1; id < m.nextID; id++ {
		if a, exists := m.accounts[id]; exists && a.ExchangeID == exchangeID {
			return a, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

// ============ Mock GridBotRepository ============

type MockGridBotRepository struct {
	bots      map[int]*models.GridBot
	createErr error
	getErr    error
	nextID    int
}

func NewMockGridBotRepository() *MockGridBotRepository {
	return &MockGridBotRepository{
		bots:   make(map[int]*models.GridBot),
		nextID: 1,
	}
}

func (m *MockGridBotRepository) Create(ctx context.Context, gb *models.GridBot) error {
	if m.createErr != nil {
		return m.createErr
	}
	gb.ID = m.nextID
	m.nextID++
	gb.CreatedAt = time.Now()
	m.bots[gb.ID] = gb
	return nil
}

func (m *MockGridBotRepository) GetByID(ctx context.Context, id int) (*models.GridBot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if gb, exists := m.bots[id]; exists {
		return gb, nil
	}
	return nil, repository.ErrGridBotNotFound
}

func (m *MockGridBotRepository) GetActive(ctx context.Context) ([]*models.GridBot, error) {
	var result []*models.GridBot
	for _, gb := range m.bots {
		if gb.Active {
			result = append(result, gb)
		}
	}
	return result, nil
}

func (m *MockGridBotRepository) Deactivate(ctx context.Context, id int) error {
	gb, exists := m.bots[id]
	if !exists {
		return repository.ErrGridBotNotFound
	}
	gb.Active = false
	return nil
}

// ============ Mock OrderRepository ============

type MockOrderRepository struct {
	orders        map[int]*models.Order
	remoteIDs     map[int64]bool // привязанные remote_id (проверка уникальности)
	createErr     error
	bulkErr       error
	getErr        error
	markSubmitErr error
	markErrorErr  error
	updateErr     error
	nextID        int
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders:    make(map[int]*models.Order),
		remoteIDs: make(map[int64]bool),
		nextID:    1,
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = m.nextID
	m.nextID++
	order.CreatedAt = time.Now()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) BulkCreate(ctx context.Context, orders []*models.Order) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	for _, o := range orders {
		if err := m.Create(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if o, exists := m.orders[id]; exists {
		copied := *o
		return &copied, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByGridBot(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	var result []*models.Order
	for id := 1; id < m.nextID; id++ {
		if o, exists := m.orders[id]; exists && o.GridBotID.Valid && int(o.GridBotID.Int64) == gridBotID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) GetForReconciliation(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	var result []*models.Order
	for id := 1; id < m.nextID; id++ {
		o, exists := m.orders[id]
		if !exists || !o.GridBotID.Valid || int(o.GridBotID.Int64) != gridBotID {
			continue
		}
		if models.IsActiveOrderState(o.State) || !o.RemoteID.Valid {
			continue
		}
		result = append(result, o)
	}
	return result, nil
}

func (m *MockOrderRepository) MarkSubmitted(ctx context.Context, id int, remoteID int64) error {
	if m.markSubmitErr != nil {
		return m.markSubmitErr
	}
	o, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	if m.remoteIDs[remoteID] {
		return repository.ErrDuplicateRemoteID
	}
	m.remoteIDs[remoteID] = true
	o.RemoteID.Int64 = remoteID
	o.RemoteID.Valid = true
	o.State = models.OrderStateWaiting
	return nil
}

func (m *MockOrderRepository) MarkError(ctx context.Context, id int, comment string) error {
	if m.markErrorErr != nil {
		return m.markErrorErr
	}
	o, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	o.State = models.OrderStateError
	if o.Comments == "" {
		o.Comments = comment
	} else {
		o.Comments += "\n" + comment
	}
	return nil
}

func (m *MockOrderRepository) UpdateState(ctx context.Context, id int, state string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	o, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	o.State = state
	return nil
}

// ============ Mock TradeRepository ============

type MockTradeRepository struct {
	trades map[int]bool // orderID -> exists
}

func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{trades: make(map[int]bool)}
}

func (m *MockTradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	m.trades[trade.OrderID] = true
	return nil
}

func (m *MockTradeRepository) ExistsForOrder(ctx context.Context, orderID int) (bool, error) {
	return m.trades[orderID], nil
}

// ============ Fake ExchangeGateway ============

type fakeGateway struct {
	provider models.Provider

	markets    []gateway.MarketInfo
	marketsErr error

	submitID  int64
	submitErr error
	submitted []gateway.OrderRequest

	status    gateway.RemoteStatus
	statusErr error
}

func (g *fakeGateway) Provider() models.Provider {
	return g.provider
}

func (g *fakeGateway) FetchMarkets(ctx context.Context) ([]gateway.MarketInfo, error) {
	return g.markets, g.marketsErr
}

func (g *fakeGateway) SubmitOrder(ctx context.Context, req gateway.OrderRequest) (int64, error) {
	g.submitted = append(g.submitted, req)
	if g.submitErr != nil {
		return 0, g.submitErr
	}
	return g.submitID, nil
}

func (g *fakeGateway) FetchOrderStatus(ctx context.Context, symbol string, remoteID int64) (gateway.RemoteStatus, error) {
	if g.statusErr != nil {
		return "", g.statusErr
	}
	return g.status, nil
}

func fakeFactory(gw *fakeGateway) GatewayFactory {
	return func(provider models.Provider, apiKey, apiSecret string) (gateway.ExchangeGateway, error) {
		gw.provider = provider
		return gw, nil
	}
}

// ============ Общие помощники ============

var testEncryptionKey = "0123456789abcdef0123456789abcdef"

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
