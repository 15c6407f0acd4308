package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridbot/internal/models"
)

// Ошибки репозитория рынков
var (
	ErrMarketNotFound = errors.New("market not found")
)

// MarketRepository - работа с таблицами markets и exchange_markets
type MarketRepository struct {
	db *sql.DB
}

// NewMarketRepository создает новый экземпляр репозитория
func NewMarketRepository(db *sql.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// Колонки рынка с JOIN'ом обеих валют
const marketSelect = `
	SELECT m.id, m.first_currency_id, m.second_currency_id, m.created_at, m.updated_at,
	       fc.id, fc.symbol, fc.precision, fc.created_at, fc.updated_at,
	       sc.id, sc.symbol, sc.precision, sc.created_at, sc.updated_at
	FROM markets m
	JOIN currencies fc ON fc.id = m.first_currency_id
	JOIN currencies sc ON sc.id = m.second_currency_id`

func scanMarket(row interface{ Scan(...interface{}) error }) (*models.Market, error) {
	m := &models.Market{
		FirstCurrency:  &models.Currency{},
		SecondCurrency: &models.Currency{},
	}
	err := row.Scan(
		&m.ID,
		&m.FirstCurrencyID,
		&m.SecondCurrencyID,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.FirstCurrency.ID,
		&m.FirstCurrency.Symbol,
		&m.FirstCurrency.Precision,
		&m.FirstCurrency.CreatedAt,
		&m.FirstCurrency.UpdatedAt,
		&m.SecondCurrency.ID,
		&m.SecondCurrency.Symbol,
		&m.SecondCurrency.Precision,
		&m.SecondCurrency.CreatedAt,
		&m.SecondCurrency.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetByID возвращает рынок по ID вместе с обеими валютами
func (r *MarketRepository) GetByID(ctx context.Context, id int) (*models.Market, error) {
	query := marketSelect + ` WHERE m.id = $1`

	m, err := scanMarket(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMarketNotFound
		}
		return nil, err
	}

	return m, nil
}

// GetByCurrencies возвращает рынок по паре валют
func (r *MarketRepository) GetByCurrencies(ctx context.Context, firstCurrencyID, secondCurrencyID int) (*models.Market, error) {
	query := marketSelect + ` WHERE m.first_currency_id = $1 AND m.second_currency_id = $2`

	m, err := scanMarket(r.db.QueryRowContext(ctx, query, firstCurrencyID, secondCurrencyID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMarketNotFound
		}
		return nil, err
	}

	return m, nil
}

// GetOrCreate возвращает рынок для пары валют, создавая его при отсутствии
//
// Пара (first_currency_id, second_currency_id) уникальна, поэтому
// конкурентные вызовы сходятся к одной записи.
func (r *MarketRepository) GetOrCreate(ctx context.Context, firstCurrencyID, secondCurrencyID int) (*models.Market, error) {
	query := `
		INSERT INTO markets (first_currency_id, second_currency_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (first_currency_id, second_currency_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, firstCurrencyID, secondCurrencyID); err != nil {
		return nil, err
	}

	return r.GetByCurrencies(ctx, firstCurrencyID, secondCurrencyID)
}

// AttachToExchange добавляет рынок в набор рынков биржи
//
// Набор только растёт: повторная привязка - no-op, пути удаления нет.
func (r *MarketRepository) AttachToExchange(ctx context.Context, exchangeID, marketID int) error {
	query := `
		INSERT INTO exchange_markets (exchange_id, market_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (exchange_id, market_id) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, exchangeID, marketID)
	return err
}

// GetByExchange возвращает все рынки биржи
func (r *MarketRepository) GetByExchange(ctx context.Context, exchangeID int) ([]*models.Market, error) {
	query := marketSelect + `
	JOIN exchange_markets em ON em.market_id = m.id
	WHERE em.exchange_id = $1
	ORDER BY m.id`

	rows, err := r.db.QueryContext(ctx, query, exchangeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		markets = append(markets, m)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return markets, nil
}
