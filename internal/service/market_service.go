package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gridbot/internal/bot"
	"gridbot/internal/gateway"
	"gridbot/internal/models"
	"gridbot/pkg/crypto"
)

// Ошибки сервиса рынков
var (
	ErrNoAccountForExchange = errors.New("exchange has no account to query markets with")
)

// MarketService - бизнес-логика каталога рынков
//
// Каталог ленивый: валюты и рынки создаются при первой встрече,
// набор рынков биржи только растёт.
type MarketService struct {
	currencyRepo CurrencyRepositoryInterface
	marketRepo   MarketRepositoryInterface
	exchangeRepo ExchangeRepositoryInterface
	accountRepo  AccountRepositoryInterface

	encryptionKey []byte
	newGateway    GatewayFactory
}

// NewMarketService создает новый экземпляр сервиса
func NewMarketService(
	currencyRepo CurrencyRepositoryInterface,
	marketRepo MarketRepositoryInterface,
	exchangeRepo ExchangeRepositoryInterface,
	accountRepo AccountRepositoryInterface,
	encryptionKey string,
) *MarketService {
	return &MarketService{
		currencyRepo:  currencyRepo,
		marketRepo:    marketRepo,
		exchangeRepo:  exchangeRepo,
		accountRepo:   accountRepo,
		encryptionKey: []byte(encryptionKey),
		newGateway:    gateway.New,
	}
}

// SetGatewayFactory подменяет фабрику шлюзов (для тестов)
func (s *MarketService) SetGatewayFactory(f GatewayFactory) {
	s.newGateway = f
}

// GetOrCreateMarket возвращает рынок для пары символов, создавая
// валюты и рынок при отсутствии
//
// Идемпотентна: конкурентные вызовы сходятся к одной записи.
func (s *MarketService) GetOrCreateMarket(ctx context.Context, baseSymbol, quoteSymbol string) (*models.Market, error) {
	base, err := s.currencyRepo.GetOrCreate(ctx, baseSymbol)
	if err != nil {
		return nil, err
	}

	quote, err := s.currencyRepo.GetOrCreate(ctx, quoteSymbol)
	if err != nil {
		return nil, err
	}

	return s.marketRepo.GetOrCreate(ctx, base.ID, quote.ID)
}

// SyncMarkets синхронизирует каталог рынков биржи с её листингом
//
// Каждая пара листинга обрабатывается независимо: ошибка на одной
// логируется и не прерывает остальные. Возвращает количество
// успешно привязанных рынков.
func (s *MarketService) SyncMarkets(ctx context.Context, exchangeID int) (int, error) {
	exchange, err := s.exchangeRepo.GetByID(ctx, exchangeID)
	if err != nil {
		return 0, err
	}

	account, err := s.accountRepo.GetFirstByExchange(ctx, exchangeID)
	if err != nil {
		return 0, fmt.Errorf("%w: exchange %d", ErrNoAccountForExchange, exchangeID)
	}

	apiKey, err := crypto.Decrypt(account.APIKey, s.encryptionKey)
	if err != nil {
		return 0, err
	}

	apiSecret, err := crypto.Decrypt(account.APISecret, s.encryptionKey)
	if err != nil {
		return 0, err
	}

	gw, err := s.newGateway(exchange.Provider, apiKey, apiSecret)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	listing, err := gw.FetchMarkets(ctx)
	bot.RecordGatewayLatency(string(exchange.Provider), "markets", time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}

	attached := 0
	for _, info := range listing {
		market, err := s.GetOrCreateMarket(ctx, info.BaseSymbol, info.QuoteSymbol)
		if err != nil {
			log.Printf("Sync %s: market %s/%s skipped: %v", exchange.Provider, info.BaseSymbol, info.QuoteSymbol, err)
			continue
		}

		if err := s.marketRepo.AttachToExchange(ctx, exchangeID, market.ID); err != nil {
			log.Printf("Sync %s: attach market %d failed: %v", exchange.Provider, market.ID, err)
			continue
		}

		attached++
	}

	return attached, nil
}

// GetMarketsByExchange возвращает каталог рынков биржи
func (s *MarketService) GetMarketsByExchange(ctx context.Context, exchangeID int) ([]*models.Market, error) {
	if _, err := s.exchangeRepo.GetByID(ctx, exchangeID); err != nil {
		return nil, err
	}
	return s.marketRepo.GetByExchange(ctx, exchangeID)
}
