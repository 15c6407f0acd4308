package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gridbot/internal/models"
)

// Ошибки репозитория ордеров
var (
	ErrOrderNotFound = errors.New("order not found")

	// Пара (remote_id, exchange_id) уникальна на уровне БД:
	// один биржевой ордер не может быть привязан к двум локальным
	ErrDuplicateRemoteID = errors.New("remote order id already bound on this exchange")
)

// OrderRepository - работа с таблицей orders
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, exchange_id, account_id, market_id, grid_bot_id, side, price, amount, remote_id, state, comments, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID,
		&o.ExchangeID,
		&o.AccountID,
		&o.MarketID,
		&o.GridBotID,
		&o.Side,
		&o.Price,
		&o.Amount,
		&o.RemoteID,
		&o.State,
		&o.Comments,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Create создает запись об ордере
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (exchange_id, account_id, market_id, grid_bot_id, side, price, amount, remote_id, state, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(
		ctx,
		query,
		order.ExchangeID,
		order.AccountID,
		order.MarketID,
		order.GridBotID,
		order.Side,
		order.Price,
		order.Amount,
		order.RemoteID,
		order.State,
		order.Comments,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// BulkCreate создает лестницу ордеров одной транзакцией
//
// Всё или ничего: при ошибке на любой ступени ни один ордер
// не сохраняется.
func (r *OrderRepository) BulkCreate(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (exchange_id, account_id, market_id, grid_bot_id, side, price, amount, remote_id, state, comments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range orders {
		err := stmt.QueryRowContext(
			ctx,
			o.ExchangeID,
			o.AccountID,
			o.MarketID,
			o.GridBotID,
			o.Side,
			o.Price,
			o.Amount,
			o.RemoteID,
			o.State,
			o.Comments,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID возвращает ордер по ID
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return o, nil
}

// GetByGridBot возвращает все ордера бота
func (r *OrderRepository) GetByGridBot(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE grid_bot_id = $1 ORDER BY price`

	return r.queryOrders(ctx, query, gridBotID)
}

// GetForReconciliation возвращает ордера бота, отобранные для сверки
//
// Выборка: состояние ВНЕ активного набора и есть remote_id.
// Фильтр намеренно повторяет исходную систему (см. internal/bot).
func (r *OrderRepository) GetForReconciliation(ctx context.Context, gridBotID int) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE grid_bot_id = $1
		  AND state NOT IN ($2, $3, $4)
		  AND remote_id IS NOT NULL
		ORDER BY id`

	return r.queryOrders(
		ctx,
		query,
		gridBotID,
		models.OrderStateWaitingToSubmit,
		models.OrderStateWaiting,
		models.OrderStatePartiallyFilled,
	)
}

// MarkSubmitted атомарно привязывает remote_id и переводит ордер в WAITING
//
// Нарушение уникальности (remote_id, exchange_id) возвращается
// как ErrDuplicateRemoteID.
func (r *OrderRepository) MarkSubmitted(ctx context.Context, id int, remoteID int64) error {
	query := `
		UPDATE orders
		SET remote_id = $1, state = $2, updated_at = NOW()
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, remoteID, models.OrderStateWaiting, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateRemoteID
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// MarkError переводит ордер в ERROR и дописывает причину в журнал
//
// Комментарии накапливаются, прежние записи не затираются.
func (r *OrderRepository) MarkError(ctx context.Context, id int, comment string) error {
	query := `
		UPDATE orders
		SET state = $1,
		    comments = CASE WHEN comments = '' THEN $2 ELSE comments || E'\n' || $2 END,
		    updated_at = NOW()
		WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, models.OrderStateError, comment, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// UpdateState обновляет состояние ордера
func (r *OrderRepository) UpdateState(ctx context.Context, id int, state string) error {
	query := `
		UPDATE orders
		SET state = $1, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, state, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *OrderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
