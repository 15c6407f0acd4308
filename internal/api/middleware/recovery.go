package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
)

// Recovery перехватывает panic в handlers, логирует stack trace
// и отвечает 500 вместо падения всего процесса. Паника в одном
// запросе не должна останавливать цикл сверки и остальные запросы.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC: %v\n", err)
				log.Printf("Stack trace:\n%s", debug.Stack())

				http.Error(
					w,
					fmt.Sprintf("Internal Server Error: %v", err),
					http.StatusInternalServerError,
				)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
