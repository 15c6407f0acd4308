package gateway

import (
	"fmt"

	"gridbot/internal/models"
)

// Причины ошибки отправки ордера
const (
	SubmitReasonAuth     = "auth"     // неверные ключи / подпись
	SubmitReasonRejected = "rejected" // биржа отклонила параметры (например, объём ниже минимума)
	SubmitReasonNetwork  = "network"  // сетевая ошибка или таймаут
)

// APIError представляет ошибку, возвращённую API биржи
type APIError struct {
	Provider models.Provider
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: [%s] %s", e.Provider, e.Code, e.Message)
}

// SubmissionError - структурированная ошибка отправки ордера
//
// Никогда не проглатывается шлюзом и никогда не приводит к retry
// внутри него. OrderService переводит её в состояние ERROR ордера
// с записью в comments.
type SubmissionError struct {
	Provider models.Provider
	Reason   string // auth, rejected, network
	Code     string // код биржи, если есть
	Message  string
	Err      error
}

func (e *SubmissionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s submit failed (%s): [%s] %s", e.Provider, e.Reason, e.Code, e.Message)
	}
	return fmt.Sprintf("%s submit failed (%s): %s", e.Provider, e.Reason, e.Message)
}

// Unwrap возвращает исходную ошибку для errors.Is() и errors.As()
func (e *SubmissionError) Unwrap() error {
	return e.Err
}
