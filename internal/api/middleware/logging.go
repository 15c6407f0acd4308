package middleware

import (
	"log"
	"net/http"
	"time"
)

// responseWriter перехватывает статус и размер ответа для лога
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging пишет одну строку на каждый HTTP-запрос.
//
// Формат: METHOD /path - status - duration - client_ip - size.
// Пример: POST /api/v1/gridbots/3/orders - 200 - 45ms - 192.168.1.1 - 812 bytes
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		log.Printf(
			"%s %s - %d - %v - %s - %d bytes",
			r.Method,
			r.URL.Path,
			wrapped.statusCode,
			duration,
			r.RemoteAddr,
			wrapped.written,
		)
	})
}
