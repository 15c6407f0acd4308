package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"gridbot/internal/models"
)

func gridBotBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(CreateGridBotRequest{
		AccountID:   1,
		MarketID:    1,
		Investment:  decimal.NewFromInt(1000),
		NoGridLines: 4,
		UpperPrice:  decimal.NewFromInt(200),
		LowerPrice:  decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	return body
}

// ============ GridBotHandler Tests ============

func TestGridBotHandler_CreateGridBot(t *testing.T) {
	t.Run("successfully creates grid bot", func(t *testing.T) {
		mockSvc := NewMockGridService()
		handler := NewGridBotHandler(mockSvc, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots", bytes.NewReader(gridBotBody(t)))
		w := httptest.NewRecorder()

		handler.CreateGridBot(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
		}

		var gb models.GridBot
		if err := json.NewDecoder(w.Body).Decode(&gb); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !gb.Active {
			t.Error("created grid bot should be active")
		}
		if gb.ID == 0 {
			t.Error("created grid bot should have an id")
		}
	})

	t.Run("returns 400 for invalid body", func(t *testing.T) {
		handler := NewGridBotHandler(NewMockGridService(), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots", bytes.NewReader([]byte("{broken")))
		w := httptest.NewRecorder()

		handler.CreateGridBot(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestGridBotHandler_CreateOrders(t *testing.T) {
	// Первый созданный бот получает id=1
	newBot := func(t *testing.T, handler *GridBotHandler) {
		t.Helper()
		w := httptest.NewRecorder()
		handler.CreateGridBot(w, httptest.NewRequest(http.MethodPost, "/api/v1/gridbots", bytes.NewReader(gridBotBody(t))))
		if w.Code != http.StatusCreated {
			t.Fatalf("failed to create grid bot: status %d", w.Code)
		}
	}

	t.Run("creates ladder and broadcasts event", func(t *testing.T) {
		mockSvc := NewMockGridService()
		hub := &MockHub{}
		handler := NewGridBotHandler(mockSvc, hub)
		newBot(t, handler)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots/1/orders", nil)
		req = withVars(req, map[string]string{"id": "1"})
		w := httptest.NewRecorder()

		handler.CreateOrders(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
		}

		var orders []*models.Order
		if err := json.NewDecoder(w.Body).Decode(&orders); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		// 4 линии = 2 ступени
		if len(orders) != 2 {
			t.Errorf("expected 2 orders, got %d", len(orders))
		}
		for _, o := range orders {
			if o.State != models.OrderStateWaitingToSubmit {
				t.Errorf("order %d: expected state WAITING_TO_SUBMIT, got %s", o.ID, o.State)
			}
		}
		if len(hub.botUpdates) != 1 || hub.botUpdates[0] != "ladder_created" {
			t.Errorf("expected ladder_created broadcast, got %v", hub.botUpdates)
		}
	})

	t.Run("returns 409 for deactivated bot", func(t *testing.T) {
		mockSvc := NewMockGridService()
		handler := NewGridBotHandler(mockSvc, nil)
		newBot(t, handler)
		mockSvc.bots[1].Active = false

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots/1/orders", nil)
		req = withVars(req, map[string]string{"id": "1"})
		w := httptest.NewRecorder()

		handler.CreateOrders(w, req)

		if w.Code != http.StatusConflict {
			t.Errorf("expected status %d, got %d", http.StatusConflict, w.Code)
		}
	})

	t.Run("returns 404 for unknown bot", func(t *testing.T) {
		handler := NewGridBotHandler(NewMockGridService(), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots/77/orders", nil)
		req = withVars(req, map[string]string{"id": "77"})
		w := httptest.NewRecorder()

		handler.CreateOrders(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestGridBotHandler_DeactivateGridBot(t *testing.T) {
	t.Run("deactivates bot and broadcasts event", func(t *testing.T) {
		mockSvc := NewMockGridService()
		hub := &MockHub{}
		handler := NewGridBotHandler(mockSvc, hub)
		handler.CreateGridBot(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/api/v1/gridbots", bytes.NewReader(gridBotBody(t))))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots/1/deactivate", nil)
		req = withVars(req, map[string]string{"id": "1"})
		w := httptest.NewRecorder()

		handler.DeactivateGridBot(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if mockSvc.bots[1].Active {
			t.Error("bot should be deactivated")
		}
		if len(hub.botUpdates) != 1 || hub.botUpdates[0] != "deactivated" {
			t.Errorf("expected deactivated broadcast, got %v", hub.botUpdates)
		}
	})

	t.Run("returns 404 for unknown bot", func(t *testing.T) {
		handler := NewGridBotHandler(NewMockGridService(), nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/gridbots/5/deactivate", nil)
		req = withVars(req, map[string]string{"id": "5"})
		w := httptest.NewRecorder()

		handler.DeactivateGridBot(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}
