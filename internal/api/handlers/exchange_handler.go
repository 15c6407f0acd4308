package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"gridbot/internal/models"
	"gridbot/internal/repository"
	"gridbot/internal/service"
)

// CreateExchangeRequest - тело запроса для регистрации биржи
type CreateExchangeRequest struct {
	Provider string `json:"provider"`
}

// CreateAccountRequest - тело запроса для привязки API-ключей
type CreateAccountRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
}

// MarketSyncResponse - результат синхронизации каталога рынков
type MarketSyncResponse struct {
	ExchangeID int `json:"exchange_id"`
	Attached   int `json:"attached"`
}

// MarketSyncBroadcaster отправляет результат синхронизации клиентам
type MarketSyncBroadcaster interface {
	BroadcastMarketSync(exchangeID, attached int)
}

// ExchangeHandler отвечает за биржи, аккаунты и каталог рынков
//
// Endpoints:
// - POST /api/v1/exchanges - регистрация биржи
// - GET /api/v1/exchanges - список бирж
// - POST /api/v1/exchanges/{id}/accounts - привязка API-ключей
// - POST /api/v1/exchanges/{id}/markets/sync - синхронизация рынков
// - GET /api/v1/exchanges/{id}/markets - каталог рынков биржи
type ExchangeHandler struct {
	exchangeService service.ExchangeServiceInterface
	marketService   service.MarketServiceInterface
	hub             MarketSyncBroadcaster // может быть nil
}

// NewExchangeHandler создает новый ExchangeHandler
func NewExchangeHandler(
	exchangeService service.ExchangeServiceInterface,
	marketService service.MarketServiceInterface,
	hub MarketSyncBroadcaster,
) *ExchangeHandler {
	return &ExchangeHandler{
		exchangeService: exchangeService,
		marketService:   marketService,
		hub:             hub,
	}
}

// CreateExchange регистрирует биржу для провайдера
// POST /api/v1/exchanges
//
// Ответы:
// - 201 Created: биржа зарегистрирована
// - 400 Bad Request: провайдер не поддерживается
// - 409 Conflict: биржа для провайдера уже существует
func (h *ExchangeHandler) CreateExchange(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req CreateExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	exchange, err := h.exchangeService.CreateExchange(r.Context(), models.Provider(req.Provider))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProviderNotSupported):
			respondWithError(w, http.StatusBadRequest, "Provider not supported", req.Provider)
		case errors.Is(err, repository.ErrExchangeExists):
			respondWithError(w, http.StatusConflict, "Exchange already exists for provider", req.Provider)
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, exchange)
}

// GetExchanges возвращает список всех бирж
// GET /api/v1/exchanges
func (h *ExchangeHandler) GetExchanges(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.exchangeService.GetAllExchanges(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get exchanges", err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, exchanges)
}

// CreateAccount привязывает API-ключи к бирже
// POST /api/v1/exchanges/{id}/accounts
//
// Ключи шифруются перед сохранением и не возвращаются в ответе.
func (h *ExchangeHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	exchangeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.APIKey == "" {
		respondWithError(w, http.StatusBadRequest, "API key is required", "")
		return
	}
	if req.APISecret == "" {
		respondWithError(w, http.StatusBadRequest, "API secret is required", "")
		return
	}

	account, err := h.exchangeService.CreateAccount(r.Context(), exchangeID, req.APIKey, req.APISecret)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrExchangeNotFound):
			respondWithError(w, http.StatusNotFound, "Exchange not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, account)
}

// SyncMarkets синхронизирует каталог рынков биржи с её листингом
// POST /api/v1/exchanges/{id}/markets/sync
//
// Ответы:
// - 200 OK: синхронизация выполнена, в теле количество рынков
// - 404 Not Found: биржа не найдена
// - 409 Conflict: у биржи нет аккаунта для запроса листинга
// - 502 Bad Gateway: листинг недоступен
func (h *ExchangeHandler) SyncMarkets(w http.ResponseWriter, r *http.Request) {
	exchangeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	attached, err := h.marketService.SyncMarkets(r.Context(), exchangeID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrExchangeNotFound):
			respondWithError(w, http.StatusNotFound, "Exchange not found", "")
		case errors.Is(err, service.ErrNoAccountForExchange):
			respondWithError(w, http.StatusConflict, "Exchange has no account", "Create an account first")
		default:
			respondWithError(w, http.StatusBadGateway, "Failed to fetch market listing", err.Error())
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastMarketSync(exchangeID, attached)
	}

	respondWithJSON(w, http.StatusOK, MarketSyncResponse{
		ExchangeID: exchangeID,
		Attached:   attached,
	})
}

// GetMarkets возвращает каталог рынков биржи
// GET /api/v1/exchanges/{id}/markets
func (h *ExchangeHandler) GetMarkets(w http.ResponseWriter, r *http.Request) {
	exchangeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	markets, err := h.marketService.GetMarketsByExchange(r.Context(), exchangeID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrExchangeNotFound):
			respondWithError(w, http.StatusNotFound, "Exchange not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, markets)
}

// pathID извлекает числовой параметр пути, отвечая 400 при мусоре
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id < 1 {
		respondWithError(w, http.StatusBadRequest, "Invalid id in path", mux.Vars(r)[name])
		return 0, false
	}
	return id, true
}
