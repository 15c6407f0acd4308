package gateway

import (
	"fmt"

	"gridbot/internal/models"
)

// SupportedProviders - список поддерживаемых провайдеров
var SupportedProviders = []models.Provider{
	models.ProviderTabdeal,
}

// New создаёт шлюз для провайдера с указанными ключами
//
// Выбор реализации - через отображение провайдер→конструктор,
// без иерархий наследования: новая биржа добавляется новым case.
func New(provider models.Provider, apiKey, apiSecret string) (ExchangeGateway, error) {
	switch provider {
	case models.ProviderTabdeal:
		return NewTabdeal(apiKey, apiSecret), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// IsSupported проверяет, поддерживается ли провайдер
func IsSupported(provider models.Provider) bool {
	for _, p := range SupportedProviders {
		if p == provider {
			return true
		}
	}
	return false
}
