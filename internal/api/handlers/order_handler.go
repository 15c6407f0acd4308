package handlers

import (
	"errors"
	"net/http"

	"gridbot/internal/models"
	"gridbot/internal/repository"
	"gridbot/internal/service"
)

// OrderBroadcaster отправляет изменения ордеров клиентам
type OrderBroadcaster interface {
	BroadcastOrderUpdate(order *models.Order)
}

// OrderHandler отвечает за отправку и сверку отдельных ордеров
//
// Endpoints:
// - GET /api/v1/orders/{id} - состояние ордера
// - POST /api/v1/orders/{id}/submit - отправка на биржу
// - POST /api/v1/orders/{id}/refresh - принудительная сверка
type OrderHandler struct {
	orderService service.OrderServiceInterface
	hub          OrderBroadcaster // может быть nil
}

// NewOrderHandler создает новый OrderHandler
func NewOrderHandler(orderService service.OrderServiceInterface, hub OrderBroadcaster) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		hub:          hub,
	}
}

// GetOrder возвращает текущее состояние ордера
// GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, order)
}

// SubmitOrder отправляет ордер на биржу
// POST /api/v1/orders/{id}/submit
//
// Отказ биржи НЕ является ошибкой запроса: ордер переводится в
// ERROR с комментарием, ответ 200 с итоговым состоянием. Ошибкой
// считается только недоступность собственного хранилища.
//
// Ответы:
// - 200 OK: отправка обработана, в теле итоговое состояние ордера
// - 404 Not Found: ордер не найден
// - 409 Conflict: ордер не в состоянии WAITING_TO_SUBMIT
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.orderService.Submit(r.Context(), orderID); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found", "")
		case errors.Is(err, service.ErrOrderNotSubmittable):
			respondWithError(w, http.StatusConflict, "Order is not in a submittable state", "")
		case errors.Is(err, repository.ErrDuplicateRemoteID):
			respondWithError(w, http.StatusConflict, "Remote order id already registered", "")
		default:
			respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		}
		return
	}

	order, err := h.orderService.GetByID(r.Context(), orderID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	if h.hub != nil {
		h.hub.BroadcastOrderUpdate(order)
	}

	respondWithJSON(w, http.StatusOK, order)
}

// RefreshOrder принудительно сверяет ордер с биржей
// POST /api/v1/orders/{id}/refresh
//
// Ответы:
// - 200 OK: сверка выполнена, в теле актуальное состояние
// - 404 Not Found: ордер не найден
// - 409 Conflict: у ордера нет remote_id (нечего сверять)
// - 502 Bad Gateway: биржа не ответила, состояние не тронуто
func (h *OrderHandler) RefreshOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orderService.RefreshState(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found", "")
		case errors.Is(err, service.ErrOrderNotRefreshable):
			respondWithError(w, http.StatusConflict, "Order has not been submitted", "")
		default:
			respondWithError(w, http.StatusBadGateway, "Failed to fetch order status", err.Error())
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastOrderUpdate(order)
	}

	respondWithJSON(w, http.StatusOK, order)
}
