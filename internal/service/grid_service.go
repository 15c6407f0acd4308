package service

import (
	"context"
	"errors"
	"fmt"

	"gridbot/internal/bot"
	"gridbot/internal/models"
)

// Ошибки сервиса сеточных ботов
var (
	ErrGridBotInactive = errors.New("grid bot is not active")
)

// GridService - бизнес-логика сеточных ботов
type GridService struct {
	gridBotRepo GridBotRepositoryInterface
	accountRepo AccountRepositoryInterface
	marketRepo  MarketRepositoryInterface
	orderRepo   OrderRepositoryInterface
}

// NewGridService создает новый экземпляр сервиса
func NewGridService(
	gridBotRepo GridBotRepositoryInterface,
	accountRepo AccountRepositoryInterface,
	marketRepo MarketRepositoryInterface,
	orderRepo OrderRepositoryInterface,
) *GridService {
	return &GridService{
		gridBotRepo: gridBotRepo,
		accountRepo: accountRepo,
		marketRepo:  marketRepo,
		orderRepo:   orderRepo,
	}
}

// CreateGridBot валидирует параметры сетки и создаёт бота
//
// Ордера при создании НЕ генерируются - это отдельная операция
// CreateOrders, запускаемая явно.
func (s *GridService) CreateGridBot(ctx context.Context, gb *models.GridBot) error {
	if err := bot.ValidateGridParams(gb); err != nil {
		return err
	}

	if _, err := s.accountRepo.GetByID(ctx, gb.AccountID); err != nil {
		return fmt.Errorf("account %d: %w", gb.AccountID, err)
	}

	if _, err := s.marketRepo.GetByID(ctx, gb.MarketID); err != nil {
		return fmt.Errorf("market %d: %w", gb.MarketID, err)
	}

	return s.gridBotRepo.Create(ctx, gb)
}

// CreateOrders генерирует лестницу ордеров бота и сохраняет её
// одной транзакцией
//
// Повторный вызов создаёт НОВУЮ лестницу: защиты от дублирования
// нет, решение об идемпотентности - на вызывающем (админ-операция).
// Сгенерированные ордера остаются в WAITING_TO_SUBMIT; отправка
// на биржу - отдельный шаг.
func (s *GridService) CreateOrders(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	gb, err := s.gridBotRepo.GetByID(ctx, gridBotID)
	if err != nil {
		return nil, err
	}

	if !gb.Active {
		return nil, fmt.Errorf("%w: bot %d", ErrGridBotInactive, gb.ID)
	}

	account, err := s.accountRepo.GetByID(ctx, gb.AccountID)
	if err != nil {
		return nil, err
	}

	market, err := s.marketRepo.GetByID(ctx, gb.MarketID)
	if err != nil {
		return nil, err
	}

	orders, err := bot.GenerateLadder(gb, account, market)
	if err != nil {
		bot.LaddersGenerated.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := s.orderRepo.BulkCreate(ctx, orders); err != nil {
		bot.LaddersGenerated.WithLabelValues("persistence_error").Inc()
		return nil, err
	}

	bot.LaddersGenerated.WithLabelValues("ok").Inc()
	return orders, nil
}

// GetByID возвращает бота по ID
func (s *GridService) GetByID(ctx context.Context, gridBotID int) (*models.GridBot, error) {
	return s.gridBotRepo.GetByID(ctx, gridBotID)
}

// GetOrders возвращает все ордера бота
func (s *GridService) GetOrders(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	if _, err := s.gridBotRepo.GetByID(ctx, gridBotID); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByGridBot(ctx, gridBotID)
}

// Deactivate выключает бота: ни генерации ордеров, ни сверки
func (s *GridService) Deactivate(ctx context.Context, gridBotID int) error {
	return s.gridBotRepo.Deactivate(ctx, gridBotID)
}
