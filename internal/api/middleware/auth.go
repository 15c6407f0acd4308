package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"gridbot/pkg/crypto"
)

// AdminAuth - middleware для защиты админских операций
//
// Операции жизненного цикла (создание ботов, генерация лестниц,
// отправка ордеров, синхронизация рынков) запускаются вручную
// оператором и защищены статическим токеном из конфигурации.
//
// Токен принимается в заголовке Authorization: Bearer <token>.
// Если задан tokenHash (bcrypt), проверка идёт по хешу - plaintext
// токен в конфигурации не хранится. Иначе сравнивается сам токен
// constant-time сравнением для предотвращения timing attacks.
//
// Использование:
//
//	api := router.PathPrefix("/api/v1").Subrouter()
//	api.Use(middleware.AdminAuth(cfg.Security.AdminToken, cfg.Security.AdminTokenHash))
func AdminAuth(token, tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			provided, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || provided == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !tokenValid(provided, token, tokenHash) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// tokenValid сверяет предъявленный токен с конфигурацией.
// bcrypt-хеш имеет приоритет над plaintext-токеном.
func tokenValid(provided, token, tokenHash string) bool {
	if tokenHash != "" {
		return crypto.CheckPasswordMatch(provided, tokenHash)
	}
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1
}
