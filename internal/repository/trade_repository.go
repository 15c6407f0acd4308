package repository

import (
	"context"
	"database/sql"

	"gridbot/internal/models"
)

// TradeRepository - работа с таблицей trades
type TradeRepository struct {
	db *sql.DB
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create создает запись об исполнении
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (order_id, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query, trade.OrderID).
		Scan(&trade.ID, &trade.CreatedAt, &trade.UpdatedAt)
}

// ExistsForOrder проверяет наличие записи Trade для ордера
func (r *TradeRepository) ExistsForOrder(ctx context.Context, orderID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trades WHERE order_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, orderID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
