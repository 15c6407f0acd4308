package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - token bucket для ограничения частоты запросов к бирже.
//
// Ведро пополняется с постоянной скоростью rate токенов/сек до ёмкости
// burst, каждый запрос потребляет один токен. Burst позволяет отправить
// несколько ступеней лестницы ордеров подряд без искусственных пауз,
// при этом средняя частота не превышает лимит биржи.
//
// Tabdeal ограничивает приватные endpoints примерно 10 req/sec;
// burst 20 покрывает отправку нескольких ступеней лестницы подряд.
//
// Использование:
//
//	limiter := NewRateLimiter(10, 20) // 10 req/sec, burst 20
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // контекст отменён до получения токена
//	}
type RateLimiter struct {
	rate       float64   // токенов в секунду
	burst      float64   // ёмкость ведра
	tokens     float64   // текущее количество токенов
	lastRefill time.Time // время последнего пополнения
	mu         sync.Mutex
}

// NewRateLimiter создаёт limiter с заданной скоростью и ёмкостью.
// Некорректные параметры заменяются безопасными значениями по
// умолчанию. Ёмкость меньше rate допустима: ведро на один токен
// с быстрым пополнением полностью запрещает всплески.
func NewRateLimiter(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = rate * 2
	}

	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // полное ведро на старте
		lastRefill: time.Now(),
	}
}

// refill пополняет токены пропорционально прошедшему времени.
// Вызывается только под mu.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}

	rl.lastRefill = now
}

// Wait блокирует до получения токена или отмены контекста.
// При отмене возвращает ctx.Err(), токен при этом не потребляется.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		// Время до появления следующего токена
		waitTime := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		select {
		case <-time.After(waitTime):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Allow проверяет доступность токена без блокировки
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	return false
}

// Tokens возвращает текущее количество доступных токенов
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}
