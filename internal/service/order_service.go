package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gridbot/internal/bot"
	"gridbot/internal/config"
	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/pkg/crypto"
)

// Ошибки сервиса ордеров
var (
	ErrOrderNotSubmittable = errors.New("order is not in a submittable state")
	ErrOrderNotRefreshable = errors.New("order has no remote id to refresh")
)

// OrderService - бизнес-логика жизненного цикла ордера
//
// Submit и RefreshState одного ордера сериализованы per-order
// блокировкой: оба пишут state (+comments) одной записью.
type OrderService struct {
	orderRepo    OrderRepositoryInterface
	accountRepo  AccountRepositoryInterface
	marketRepo   MarketRepositoryInterface
	exchangeRepo ExchangeRepositoryInterface

	locks         *bot.OrderLocks
	encryptionKey []byte
	newGateway    GatewayFactory
	cfg           config.BotConfig
}

// NewOrderService создает новый экземпляр сервиса
func NewOrderService(
	orderRepo OrderRepositoryInterface,
	accountRepo AccountRepositoryInterface,
	marketRepo MarketRepositoryInterface,
	exchangeRepo ExchangeRepositoryInterface,
	encryptionKey string,
	cfg config.BotConfig,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		accountRepo:   accountRepo,
		marketRepo:    marketRepo,
		exchangeRepo:  exchangeRepo,
		locks:         bot.NewOrderLocks(),
		encryptionKey: []byte(encryptionKey),
		newGateway:    gateway.New,
		cfg:           cfg,
	}
}

// SetGatewayFactory подменяет фабрику шлюзов (для тестов)
func (s *OrderService) SetGatewayFactory(f GatewayFactory) {
	s.newGateway = f
}

// Submit отправляет ордер на биржу (fire-and-forget)
//
// Ошибки биржи (авторизация, отклонение, сеть) НЕ возвращаются
// наверх: ордер переводится в ERROR с записью причины в comments,
// и Submit завершается успешно. Наверх поднимаются только ошибки
// персистентности - когда результат не удалось сохранить.
func (s *OrderService) Submit(ctx context.Context, orderID int) error {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !bot.CanSubmit(order.State) {
		return fmt.Errorf("%w: order %d is %s", ErrOrderNotSubmittable, order.ID, order.State)
	}

	gw, symbol, err := s.buildGateway(ctx, order)
	if err != nil {
		return err
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	defer cancel()

	start := time.Now()
	remoteID, err := gw.SubmitOrder(submitCtx, gateway.OrderRequest{
		Symbol: symbol,
		Side:   order.Side,
		Price:  order.Price,
		Amount: order.Amount,
	})
	bot.RecordGatewayLatency(string(gw.Provider()), "submit", time.Since(start).Seconds())
	if err != nil {
		return s.recordSubmitFailure(ctx, order, gw.Provider(), err)
	}

	// Привязка remote_id и переход в WAITING - одно атомарное обновление
	if err := s.orderRepo.MarkSubmitted(ctx, order.ID, remoteID); err != nil {
		return err
	}

	bot.RecordSubmit(string(gw.Provider()), "accepted")
	bot.RecordTransition(order.State, models.OrderStateWaiting)
	return nil
}

// recordSubmitFailure переводит ордер в ERROR с причиной в журнале
//
// Возвращает ошибку только если не удалось сохранить сам факт сбоя.
func (s *OrderService) recordSubmitFailure(ctx context.Context, order *models.Order, provider models.Provider, submitErr error) error {
	reason := gateway.SubmitReasonNetwork
	var subErr *gateway.SubmissionError
	if errors.As(submitErr, &subErr) {
		reason = subErr.Reason
	}

	comment := fmt.Sprintf("[%s] %s", time.Now().UTC().Format(time.RFC3339), submitErr.Error())
	if err := s.orderRepo.MarkError(ctx, order.ID, comment); err != nil {
		return err
	}

	bot.RecordSubmit(string(provider), reason)
	bot.RecordTransition(order.State, models.OrderStateError)
	return nil
}

// RefreshState сверяет состояние ордера со статусом на бирже
//
// Статус биржи прогоняется через state machine и персистится
// безусловно - даже если отображённое состояние совпадает с текущим.
// Неуспешный запрос статуса возвращается как ошибка, состояние
// ордера при этом не трогается (в частности, не становится IDLE).
func (s *OrderService) RefreshState(ctx context.Context, orderID int) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !bot.CanRefresh(order) {
		return nil, fmt.Errorf("%w: order %d", ErrOrderNotRefreshable, order.ID)
	}

	gw, symbol, err := s.buildGateway(ctx, order)
	if err != nil {
		return nil, err
	}

	statusCtx, cancel := context.WithTimeout(ctx, s.cfg.StatusTimeout)
	defer cancel()

	start := time.Now()
	remoteStatus, err := gw.FetchOrderStatus(statusCtx, symbol, order.RemoteID.Int64)
	bot.RecordGatewayLatency(string(gw.Provider()), "status", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	newState := bot.MapRemoteStatus(remoteStatus)
	if err := s.orderRepo.UpdateState(ctx, order.ID, newState); err != nil {
		return nil, err
	}

	bot.RecordTransition(order.State, newState)

	return s.orderRepo.GetByID(ctx, order.ID)
}

// GetByID возвращает ордер по ID
func (s *OrderService) GetByID(ctx context.Context, orderID int) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, orderID)
}

// buildGateway конструирует аутентифицированный шлюз для ордера
//
// Ключи аккаунта расшифровываются на каждый вызов и не кэшируются.
func (s *OrderService) buildGateway(ctx context.Context, order *models.Order) (gateway.ExchangeGateway, string, error) {
	exchange, err := s.exchangeRepo.GetByID(ctx, order.ExchangeID)
	if err != nil {
		return nil, "", err
	}

	account, err := s.accountRepo.GetByID(ctx, order.AccountID)
	if err != nil {
		return nil, "", err
	}

	market, err := s.marketRepo.GetByID(ctx, order.MarketID)
	if err != nil {
		return nil, "", err
	}

	apiKey, err := crypto.Decrypt(account.APIKey, s.encryptionKey)
	if err != nil {
		return nil, "", err
	}

	apiSecret, err := crypto.Decrypt(account.APISecret, s.encryptionKey)
	if err != nil {
		return nil, "", err
	}

	gw, err := s.newGateway(exchange.Provider, apiKey, apiSecret)
	if err != nil {
		return nil, "", err
	}

	return gw, market.Symbol(), nil
}
