package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridbot/internal/models"
)

// Ошибки репозитория сеточных ботов
var (
	ErrGridBotNotFound = errors.New("grid bot not found")
)

// GridBotRepository - работа с таблицей grid_bots
type GridBotRepository struct {
	db *sql.DB
}

// NewGridBotRepository создает новый экземпляр репозитория
func NewGridBotRepository(db *sql.DB) *GridBotRepository {
	return &GridBotRepository{db: db}
}

// Create создает запись о сеточном боте
func (r *GridBotRepository) Create(ctx context.Context, gb *models.GridBot) error {
	query := `
		INSERT INTO grid_bots (account_id, market_id, investment, no_grid_lines, upper_price, lower_price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(
		ctx,
		query,
		gb.AccountID,
		gb.MarketID,
		gb.Investment,
		gb.NoGridLines,
		gb.UpperPrice,
		gb.LowerPrice,
		gb.Active,
	).Scan(&gb.ID, &gb.CreatedAt, &gb.UpdatedAt)
}

// GetByID возвращает бота по ID
func (r *GridBotRepository) GetByID(ctx context.Context, id int) (*models.GridBot, error) {
	query := `
		SELECT id, account_id, market_id, investment, no_grid_lines, upper_price, lower_price, active, created_at, updated_at
		FROM grid_bots
		WHERE id = $1`

	gb := &models.GridBot{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&gb.ID,
		&gb.AccountID,
		&gb.MarketID,
		&gb.Investment,
		&gb.NoGridLines,
		&gb.UpperPrice,
		&gb.LowerPrice,
		&gb.Active,
		&gb.CreatedAt,
		&gb.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGridBotNotFound
		}
		return nil, err
	}

	return gb, nil
}

// GetActive возвращает всех активных ботов
func (r *GridBotRepository) GetActive(ctx context.Context) ([]*models.GridBot, error) {
	query := `
		SELECT id, account_id, market_id, investment, no_grid_lines, upper_price, lower_price, active, created_at, updated_at
		FROM grid_bots
		WHERE active = TRUE
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []*models.GridBot
	for rows.Next() {
		gb := &models.GridBot{}
		err := rows.Scan(
			&gb.ID,
			&gb.AccountID,
			&gb.MarketID,
			&gb.Investment,
			&gb.NoGridLines,
			&gb.UpperPrice,
			&gb.LowerPrice,
			&gb.Active,
			&gb.CreatedAt,
			&gb.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bots = append(bots, gb)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bots, nil
}

// Deactivate выключает бота
//
// Обратного пути нет: повторная активация не реализована.
func (r *GridBotRepository) Deactivate(ctx context.Context, id int) error {
	query := `
		UPDATE grid_bots
		SET active = FALSE, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrGridBotNotFound
	}

	return nil
}
