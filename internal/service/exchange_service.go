package service

import (
	"context"
	"errors"

	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/pkg/crypto"
)

// Ошибки сервиса бирж
var (
	ErrProviderNotSupported = errors.New("provider is not supported")
)

// ExchangeService - бизнес-логика бирж и аккаунтов
//
// Ключи аккаунта шифруются AES-256-GCM перед сохранением и
// расшифровываются только в момент конструирования шлюза.
type ExchangeService struct {
	exchangeRepo ExchangeRepositoryInterface
	accountRepo  AccountRepositoryInterface

	encryptionKey []byte
}

// NewExchangeService создает новый экземпляр сервиса
func NewExchangeService(
	exchangeRepo ExchangeRepositoryInterface,
	accountRepo AccountRepositoryInterface,
	encryptionKey string,
) *ExchangeService {
	return &ExchangeService{
		exchangeRepo:  exchangeRepo,
		accountRepo:   accountRepo,
		encryptionKey: []byte(encryptionKey),
	}
}

// CreateExchange регистрирует биржу для провайдера
//
// Ровно одна биржа на провайдера: дубликат возвращает
// repository.ErrExchangeExists.
func (s *ExchangeService) CreateExchange(ctx context.Context, provider models.Provider) (*models.Exchange, error) {
	if !gateway.IsSupported(provider) {
		return nil, ErrProviderNotSupported
	}

	exchange := &models.Exchange{Provider: provider}
	if err := s.exchangeRepo.Create(ctx, exchange); err != nil {
		return nil, err
	}

	return exchange, nil
}

// GetAllExchanges возвращает все зарегистрированные биржи
func (s *ExchangeService) GetAllExchanges(ctx context.Context) ([]*models.Exchange, error) {
	return s.exchangeRepo.GetAll(ctx)
}

// CreateAccount привязывает API-ключи к бирже
//
// Ключи шифруются до записи; в открытом виде они нигде не хранятся
// и не возвращаются.
func (s *ExchangeService) CreateAccount(ctx context.Context, exchangeID int, apiKey, apiSecret string) (*models.Account, error) {
	if _, err := s.exchangeRepo.GetByID(ctx, exchangeID); err != nil {
		return nil, err
	}

	encryptedKey, err := crypto.Encrypt(apiKey, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	encryptedSecret, err := crypto.Encrypt(apiSecret, s.encryptionKey)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ExchangeID: exchangeID,
		APIKey:     encryptedKey,
		APISecret:  encryptedSecret,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}
