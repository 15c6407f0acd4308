package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"gridbot/internal/bot"
	"gridbot/internal/models"
	"gridbot/internal/repository"
	"gridbot/internal/service"
)

// CreateGridBotRequest - тело запроса для создания сеточного бота
type CreateGridBotRequest struct {
	AccountID   int             `json:"account_id"`
	MarketID    int             `json:"market_id"`
	Investment  decimal.Decimal `json:"investment"`
	NoGridLines int             `json:"no_grid_lines"`
	UpperPrice  decimal.Decimal `json:"upper_price"`
	LowerPrice  decimal.Decimal `json:"lower_price"`
}

// BotEventBroadcaster отправляет события сеточных ботов клиентам
type BotEventBroadcaster interface {
	BroadcastBotUpdate(gridBotID int, event string, orderCount int)
}

// GridBotHandler отвечает за жизненный цикл сеточных ботов
//
// Endpoints:
// - POST /api/v1/gridbots - создание бота
// - GET /api/v1/gridbots/{id} - параметры бота
// - POST /api/v1/gridbots/{id}/orders - генерация лестницы ордеров
// - GET /api/v1/gridbots/{id}/orders - ордера бота
// - POST /api/v1/gridbots/{id}/deactivate - деактивация
type GridBotHandler struct {
	gridService service.GridServiceInterface
	hub         BotEventBroadcaster // может быть nil
}

// NewGridBotHandler создает новый GridBotHandler
func NewGridBotHandler(gridService service.GridServiceInterface, hub BotEventBroadcaster) *GridBotHandler {
	return &GridBotHandler{
		gridService: gridService,
		hub:         hub,
	}
}

// CreateGridBot создает сеточного бота
// POST /api/v1/gridbots
//
// Ответы:
// - 201 Created: бот создан (active=true)
// - 400 Bad Request: параметры сетки не проходят валидацию
// - 404 Not Found: аккаунт или рынок не найдены
func (h *GridBotHandler) CreateGridBot(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	var req CreateGridBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	gb := &models.GridBot{
		AccountID:   req.AccountID,
		MarketID:    req.MarketID,
		Investment:  req.Investment,
		NoGridLines: req.NoGridLines,
		UpperPrice:  req.UpperPrice,
		LowerPrice:  req.LowerPrice,
		Active:      true,
	}

	if err := h.gridService.CreateGridBot(r.Context(), gb); err != nil {
		var vErr *bot.ValidationError
		switch {
		case errors.As(err, &vErr):
			respondWithError(w, http.StatusBadRequest, "Invalid grid parameters", vErr.Error())
		case errors.Is(err, repository.ErrAccountNotFound):
			respondWithError(w, http.StatusNotFound, "Account not found", "")
		case errors.Is(err, repository.ErrMarketNotFound):
			respondWithError(w, http.StatusNotFound, "Market not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, gb)
}

// GetGridBot возвращает параметры сеточного бота
// GET /api/v1/gridbots/{id}
func (h *GridBotHandler) GetGridBot(w http.ResponseWriter, r *http.Request) {
	gridBotID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	gb, err := h.gridService.GetByID(r.Context(), gridBotID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrGridBotNotFound):
			respondWithError(w, http.StatusNotFound, "Grid bot not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, gb)
}

// CreateOrders генерирует лестницу ордеров для бота
// POST /api/v1/gridbots/{id}/orders
//
// Все ступени создаются в одной транзакции в состоянии
// WAITING_TO_SUBMIT; на биржу здесь ничего не отправляется.
//
// Ответы:
// - 201 Created: лестница создана, в теле список ордеров
// - 400 Bad Request: параметры бота дают нулевую ступень
// - 404 Not Found: бот не найден
// - 409 Conflict: бот деактивирован
func (h *GridBotHandler) CreateOrders(w http.ResponseWriter, r *http.Request) {
	gridBotID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	orders, err := h.gridService.CreateOrders(r.Context(), gridBotID)
	if err != nil {
		var vErr *bot.ValidationError
		switch {
		case errors.Is(err, repository.ErrGridBotNotFound):
			respondWithError(w, http.StatusNotFound, "Grid bot not found", "")
		case errors.Is(err, service.ErrGridBotInactive):
			respondWithError(w, http.StatusConflict, "Grid bot is deactivated", "")
		case errors.As(err, &vErr):
			respondWithError(w, http.StatusBadRequest, "Invalid grid parameters", vErr.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastBotUpdate(gridBotID, "ladder_created", len(orders))
	}

	respondWithJSON(w, http.StatusCreated, orders)
}

// GetOrders возвращает ордера сеточного бота
// GET /api/v1/gridbots/{id}/orders
func (h *GridBotHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	gridBotID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	orders, err := h.gridService.GetOrders(r.Context(), gridBotID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrGridBotNotFound):
			respondWithError(w, http.StatusNotFound, "Grid bot not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

// DeactivateGridBot деактивирует сеточного бота
// POST /api/v1/gridbots/{id}/deactivate
//
// Деактивация исключает бота из цикла сверки. Повторная
// активация не поддерживается.
func (h *GridBotHandler) DeactivateGridBot(w http.ResponseWriter, r *http.Request) {
	gridBotID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.gridService.Deactivate(r.Context(), gridBotID); err != nil {
		switch {
		case errors.Is(err, repository.ErrGridBotNotFound):
			respondWithError(w, http.StatusNotFound, "Grid bot not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastBotUpdate(gridBotID, "deactivated", 0)
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Grid bot deactivated"})
}
