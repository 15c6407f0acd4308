package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridbot/internal/models"
)

// Ошибки репозитория валют
var (
	ErrCurrencyNotFound = errors.New("currency not found")
)

// CurrencyRepository - работа с таблицей currencies
type CurrencyRepository struct {
	db *sql.DB
}

// NewCurrencyRepository создает новый экземпляр репозитория
func NewCurrencyRepository(db *sql.DB) *CurrencyRepository {
	return &CurrencyRepository{db: db}
}

// GetByID возвращает валюту по ID
func (r *CurrencyRepository) GetByID(ctx context.Context, id int) (*models.Currency, error) {
	query := `
		SELECT id, symbol, precision, created_at, updated_at
		FROM currencies
		WHERE id = $1`

	c := &models.Currency{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Symbol,
		&c.Precision,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCurrencyNotFound
		}
		return nil, err
	}

	return c, nil
}

// GetBySymbol возвращает валюту по символу
func (r *CurrencyRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Currency, error) {
	query := `
		SELECT id, symbol, precision, created_at, updated_at
		FROM currencies
		WHERE symbol = $1`

	c := &models.Currency{}
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(
		&c.ID,
		&c.Symbol,
		&c.Precision,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCurrencyNotFound
		}
		return nil, err
	}

	return c, nil
}

// GetOrCreate возвращает валюту по символу, создавая её при отсутствии
//
// Новая валюта получает precision по умолчанию. Существующая запись
// не изменяется - precision правится только вручную.
func (r *CurrencyRepository) GetOrCreate(ctx context.Context, symbol string) (*models.Currency, error) {
	query := `
		INSERT INTO currencies (symbol, precision, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (symbol) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, symbol, models.DefaultCurrencyPrecision); err != nil {
		return nil, err
	}

	return r.GetBySymbol(ctx, symbol)
}
