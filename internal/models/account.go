package models

import "time"

// Account представляет API-ключи, привязанные к одной бирже
//
// Ключи зашифрованы AES-256-GCM перед сохранением (pkg/crypto)
// и никогда не возвращаются в JSON. Из аккаунта конструируется
// аутентифицированный шлюз на каждый вызов.
type Account struct {
	ID         int       `json:"id" db:"id"`
	ExchangeID int       `json:"exchange_id" db:"exchange_id"`
	APIKey     string    `json:"-" db:"api_key"`    // зашифрован
	APISecret  string    `json:"-" db:"api_secret"` // зашифрован
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
