package middleware

import (
	"net/http"
	"os"
	"strings"
)

// allowedOrigins содержит список разрешенных доменов для CORS.
// В production загружается из переменной окружения CORS_ALLOWED_ORIGINS.
var allowedOrigins = map[string]bool{
	"http://localhost:3000":   true,
	"http://127.0.0.1:3000":   true,
	"http://localhost:8080":   true,
	"http://127.0.0.1:8080":   true,
	"http://localhost:5173":   true, // Vite dev server
	"http://127.0.0.1:5173":   true,
}

func init() {
	// Загружаем дополнительные origins из переменной окружения
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}
}

// isOriginAllowed проверяет, разрешен ли origin
func isOriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	return allowedOrigins[origin]
}

// CORS выставляет заголовки для браузерного дашборда бота,
// работающего на другом origin.
//
// Разрешённые origins задаются через CORS_ALLOWED_ORIGINS (через
// запятую), по умолчанию пускаются только localhost dev-серверы.
// При credentials в ответе стоит конкретный origin, не *.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if isOriginAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		} else if origin == "" {
			// Запросы без Origin (curl, мониторинг) пропускаем
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		// Неразрешённый origin не получает заголовков, браузер заблокирует ответ

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
