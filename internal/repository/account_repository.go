package repository

import (
	"context"
	"database/sql"
	"errors"

	"gridbot/internal/models"
)

// Ошибки репозитория аккаунтов
var (
	ErrAccountNotFound = errors.New("account not found")
)

// AccountRepository - работа с таблицей accounts
//
// api_key и api_secret хранятся зашифрованными (AES-256-GCM,
// см. pkg/crypto); репозиторий оперирует шифротекстом как строками.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository создает новый экземпляр репозитория
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create создает запись об аккаунте
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (exchange_id, api_key, api_secret, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(
		ctx,
		query,
		account.ExchangeID,
		account.APIKey,
		account.APISecret,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

// GetByID возвращает аккаунт по ID
func (r *AccountRepository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	query := `
		SELECT id, exchange_id, api_key, api_secret, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.ExchangeID,
		&a.APIKey,
		&a.APISecret,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return a, nil
}

// GetFirstByExchange возвращает первый аккаунт биржи
//
// Используется синхронизацией каталога рынков: листинг публичный,
// но шлюз конструируется из аккаунта.
func (r *AccountRepository) GetFirstByExchange(ctx context.Context, exchangeID int) (*models.Account, error) {
	query := `
		SELECT id, exchange_id, api_key, api_secret, created_at, updated_at
		FROM accounts
		WHERE exchange_id = $1
		ORDER BY id
		LIMIT 1`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, exchangeID).Scan(
		&a.ID,
		&a.ExchangeID,
		&a.APIKey,
		&a.APISecret,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return a, nil
}
