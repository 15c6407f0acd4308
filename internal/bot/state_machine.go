package bot

import (
	"gridbot/internal/models"

	"gridbot/internal/gateway"
)

// MapRemoteStatus переводит статус биржи в локальное состояние ордера
//
// Чистая функция: применение дважды с одним и тем же статусом
// идемпотентно. Нераспознанный, но успешно полученный статус
// отображается в IDLE - это НЕ то же самое, что ошибка запроса
// статуса (та оставляет прежнее состояние нетронутым, см. reconciler).
func MapRemoteStatus(status gateway.RemoteStatus) string {
	switch status {
	case gateway.RemoteStatusNew:
		return models.OrderStateWaiting
	case gateway.RemoteStatusFilled: // "FILED" - написание биржи
		return models.OrderStateFilled
	case gateway.RemoteStatusPartiallyFilled:
		return models.OrderStatePartiallyFilled
	case gateway.RemoteStatusPartiallyFilledAndFinished:
		return models.OrderStatePartiallyFilledAndFinished
	case gateway.RemoteStatusError:
		return models.OrderStateError
	case gateway.RemoteStatusCanceled:
		return models.OrderStateCanceled
	default:
		return models.OrderStateIdle
	}
}

// CanSubmit проверяет, допустима ли отправка из данного состояния
//
// Отправка валидна только из начального состояния: повторная
// отправка уже отправленного (или разрешённого) ордера запрещена.
func CanSubmit(state string) bool {
	return state == models.OrderStateWaitingToSubmit
}

// CanRefresh проверяет, допустима ли сверка ордера
//
// Сверка требует присвоенного remote id - ордер, который ни разу
// не был принят биржей, сверять не с чем.
func CanRefresh(o *models.Order) bool {
	return o.RemoteID.Valid
}
