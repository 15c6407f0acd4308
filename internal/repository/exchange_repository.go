package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gridbot/internal/models"
)

// Ошибки репозитория бирж
var (
	ErrExchangeNotFound = errors.New("exchange not found")
	ErrExchangeExists   = errors.New("exchange for provider already exists")
)

// ExchangeRepository - работа с таблицей exchanges
type ExchangeRepository struct {
	db *sql.DB
}

// NewExchangeRepository создает новый экземпляр репозитория
func NewExchangeRepository(db *sql.DB) *ExchangeRepository {
	return &ExchangeRepository{db: db}
}

// Create создает запись о бирже
//
// Провайдер уникален: вторая запись для того же провайдера
// возвращает ErrExchangeExists.
func (r *ExchangeRepository) Create(ctx context.Context, exchange *models.Exchange) error {
	query := `
		INSERT INTO exchanges (provider, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, exchange.Provider).Scan(
		&exchange.ID,
		&exchange.CreatedAt,
		&exchange.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrExchangeExists
		}
		return err
	}

	return nil
}

// GetByID возвращает биржу по ID
func (r *ExchangeRepository) GetByID(ctx context.Context, id int) (*models.Exchange, error) {
	query := `
		SELECT id, provider, created_at, updated_at
		FROM exchanges
		WHERE id = $1`

	e := &models.Exchange{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID,
		&e.Provider,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExchangeNotFound
		}
		return nil, err
	}

	return e, nil
}

// GetByProvider возвращает биржу по провайдеру
func (r *ExchangeRepository) GetByProvider(ctx context.Context, provider models.Provider) (*models.Exchange, error) {
	query := `
		SELECT id, provider, created_at, updated_at
		FROM exchanges
		WHERE provider = $1`

	e := &models.Exchange{}
	err := r.db.QueryRowContext(ctx, query, provider).Scan(
		&e.ID,
		&e.Provider,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExchangeNotFound
		}
		return nil, err
	}

	return e, nil
}

// GetAll возвращает все биржи
func (r *ExchangeRepository) GetAll(ctx context.Context) ([]*models.Exchange, error) {
	query := `
		SELECT id, provider, created_at, updated_at
		FROM exchanges
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []*models.Exchange
	for rows.Next() {
		e := &models.Exchange{}
		err := rows.Scan(
			&e.ID,
			&e.Provider,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return exchanges, nil
}
