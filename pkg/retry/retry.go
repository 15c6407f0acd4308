package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config описывает стратегию повторных попыток.
//
// Задержка между попытками растёт экспоненциально:
// delay = min(InitialDelay * Multiplier^attempt, MaxDelay) ± jitter.
// Jitter разносит по времени повторы разных горутин цикла сверки,
// чтобы они не били в биржу одновременно.
type Config struct {
	// MaxRetries - общее количество попыток, включая первую.
	// Значение <= 0 означает повторять до отмены контекста.
	MaxRetries int

	// InitialDelay - задержка перед второй попыткой (default 100ms)
	InitialDelay time.Duration

	// MaxDelay - потолок задержки (default 30s)
	MaxDelay time.Duration

	// Multiplier - множитель экспоненциального роста (default 2.0)
	Multiplier float64

	// JitterFactor - доля случайной вариации задержки, 0..1 (default 0.1)
	JitterFactor float64

	// RetryIf решает, имеет ли смысл повторять после данной ошибки.
	// nil означает повторять после любой ошибки.
	RetryIf func(error) bool

	// OnRetry вызывается перед каждым повтором, обычно для логирования
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig - 4 попытки с задержками 100ms/200ms/400ms (+ jitter).
// Достаточно для переживания кратковременных сбоев сети до биржи.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   4,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (c *Config) validate() {
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
}

func (c *Config) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))

	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterFactor > 0 {
		// Вариация от -JitterFactor до +JitterFactor
		delay += delay * c.JitterFactor * (rand.Float64()*2 - 1)
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// DoWithResult выполняет операцию с повторами и возвращает её результат.
//
// Типичное применение - сверка статуса ордера с биржей:
//
//	order, err := retry.DoWithResult(ctx, func() (*models.Order, error) {
//	    return orderService.RefreshState(ctx, orderID)
//	}, retry.DefaultConfig())
//
// Возвращается последняя ошибка операции; отмена контекста между
// попытками тоже завершает цикл последней ошибкой.
func DoWithResult[T any](ctx context.Context, operation func() (T, error), cfg Config) (T, error) {
	cfg.validate()

	var lastErr error
	var zero T

	for attempt := 0; cfg.MaxRetries <= 0 || attempt < cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return zero, err
		}

		// После последней попытки не ждём
		if cfg.MaxRetries > 0 && attempt >= cfg.MaxRetries-1 {
			break
		}

		delay := cfg.calculateDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// Do - вариант DoWithResult для операций без результата
func Do(ctx context.Context, operation func() error, cfg Config) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	}, cfg)
	return err
}

// RetryIfNotContext запрещает повторы после отмены или таймаута контекста.
// Повторять такие ошибки бессмысленно: вызывающая сторона уже ушла.
func RetryIfNotContext(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
