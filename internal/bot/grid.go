package bot

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"gridbot/internal/models"
)

// ValidationError - ошибка параметров сетки
//
// Возвращается ДО любых вычислений: некорректные параметры
// (неположительные границы, lower >= upper, нечётное или малое
// количество линий) отклоняются валидацией, а не всплывают как
// деление на ноль в арифметике лестницы.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid grid parameter %s: %s", e.Field, e.Message)
}

// ValidateGridParams проверяет параметры сеточного бота
func ValidateGridParams(gb *models.GridBot) error {
	if !gb.LowerPrice.IsPositive() {
		return &ValidationError{Field: "lower_price", Message: "must be positive"}
	}
	if !gb.UpperPrice.IsPositive() {
		return &ValidationError{Field: "upper_price", Message: "must be positive"}
	}
	if !gb.LowerPrice.LessThan(gb.UpperPrice) {
		return &ValidationError{Field: "lower_price", Message: "must be strictly below upper_price"}
	}
	if gb.NoGridLines < 2 {
		return &ValidationError{Field: "no_grid_lines", Message: "must be at least 2"}
	}
	if gb.NoGridLines%2 != 0 {
		return &ValidationError{Field: "no_grid_lines", Message: "must be even"}
	}
	if gb.LegCount() < 1 {
		return &ValidationError{Field: "no_grid_lines", Message: "leg count must be at least 1"}
	}
	if !gb.Investment.IsPositive() {
		return &ValidationError{Field: "investment", Message: "must be positive"}
	}
	return nil
}

// GenerateLadder вычисляет лестницу buy-ордеров сеточного бота
//
// Вся арифметика - на decimal: цены лестницы складываются до
// legCount раз, и float64 накапливал бы аддитивную ошибку.
//
//	step      = (upper - lower) / noGridLines
//	legCount  = noGridLines / 2   (заполняется нижняя половина диапазона)
//	perLeg    = investment / legCount
//	price_i   = lower + i*step
//	amount_i  = round(perLeg / price_i, precision базовой валюты)
//
// Ордера возвращаются несохранёнными, все side=BUY, в состоянии
// WAITING_TO_SUBMIT. Персист - единым bulk-insert в транзакции
// (OrderRepository.BulkCreate): либо вся лестница, либо ничего.
func GenerateLadder(gb *models.GridBot, account *models.Account, market *models.Market) ([]*models.Order, error) {
	if err := ValidateGridParams(gb); err != nil {
		return nil, err
	}
	if market.FirstCurrency == nil {
		return nil, &ValidationError{Field: "market", Message: "base currency is not loaded"}
	}

	precision := int32(market.FirstCurrency.Precision)
	legCount := gb.LegCount()

	step := gb.UpperPrice.Sub(gb.LowerPrice).Div(decimal.NewFromInt(int64(gb.NoGridLines)))
	perLeg := gb.Investment.Div(decimal.NewFromInt(int64(legCount)))

	orders := make([]*models.Order, 0, legCount)
	for i := 0; i < legCount; i++ {
		price := gb.LowerPrice.Add(step.Mul(decimal.NewFromInt(int64(i))))
		amount := perLeg.Div(price).RoundBank(precision)

		// Округление до точности базовой валюты может занулить объём -
		// такая лестница нелегальна на бирже целиком
		if !amount.IsPositive() {
			return nil, &ValidationError{
				Field:   "investment",
				Message: fmt.Sprintf("leg %d amount rounds to zero at precision %d", i, precision),
			}
		}

		orders = append(orders, &models.Order{
			ExchangeID: account.ExchangeID,
			AccountID:  gb.AccountID,
			MarketID:   gb.MarketID,
			GridBotID:  sql.NullInt64{Int64: int64(gb.ID), Valid: true},
			Side:       models.OrderSideBuy,
			Price:      price,
			Amount:     amount,
			State:      models.OrderStateWaitingToSubmit,
		})
	}

	return orders, nil
}
