package bot

import (
	"context"
	"log"
	"sync"
	"time"

	"gridbot/internal/config"
	"gridbot/internal/models"
	"gridbot/pkg/retry"
)

// ReconcileStore - доступ к хранилищу, нужный циклу сверки
//
// Реализуется слоем repository (см. cmd/server/main.go).
type ReconcileStore interface {
	// GetActiveGridBots возвращает всех активных сеточных ботов
	GetActiveGridBots(ctx context.Context) ([]*models.GridBot, error)

	// GetOrdersForReconciliation возвращает ордера бота, отобранные
	// для опроса биржи (см. комментарий в reconcileBot)
	GetOrdersForReconciliation(ctx context.Context, gridBotID int) ([]*models.Order, error)

	// TradeExists проверяет наличие записи Trade для ордера
	TradeExists(ctx context.Context, orderID int) (bool, error)
}

// OrderRefresher - операция сверки одного ордера
//
// Реализуется OrderService: запрашивает статус на бирже, применяет
// state machine и персистит результат. Возвращает перечитанный ордер.
type OrderRefresher interface {
	RefreshState(ctx context.Context, orderID int) (*models.Order, error)
}

// OrderBroadcaster - интерфейс для отправки обновлений ордеров клиентам
//
// Реализуется пакетом internal/websocket/Hub.
type OrderBroadcaster interface {
	BroadcastOrderUpdate(order *models.Order)
}

// Reconciler - периодический цикл сверки ордеров с биржей
//
// Каждый проход независим и краткоживущ. Разные боты сверяются
// параллельно (ограничено MaxConcurrentBots), внутри одного ордера
// операции сериализованы per-order lock'ом в OrderService.
//
// Retry живут здесь, на границе планирования, а не внутри state
// machine: неудачная сверка ордера оставляет его прежнее
// персистентное состояние нетронутым.
type Reconciler struct {
	store  ReconcileStore
	orders OrderRefresher
	hub    OrderBroadcaster // может быть nil
	cfg    config.BotConfig
}

// NewReconciler создаёт цикл сверки
func NewReconciler(store ReconcileStore, orders OrderRefresher, hub OrderBroadcaster, cfg config.BotConfig) *Reconciler {
	return &Reconciler{
		store:  store,
		orders: orders,
		hub:    hub,
		cfg:    cfg,
	}
}

// Run запускает периодическую сверку до отмены контекста
//
// Запускается в отдельной горутине: go reconciler.Run(ctx)
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	log.Printf("Reconciler started (interval %v)", r.cfg.ReconcileInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconciler stopped")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				log.Printf("Reconcile pass failed: %v", err)
			}
		}
	}
}

// RunOnce выполняет один проход сверки по всем активным ботам
//
// Пустой набор ботов или ордеров - тихий no-op.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	start := time.Now()

	bots, err := r.store.GetActiveGridBots(ctx)
	if err != nil {
		ReconcilePasses.WithLabelValues("error").Inc()
		return err
	}

	ActiveGridBots.Set(float64(len(bots)))

	// Параллельно по ботам, с ограничением
	sem := make(chan struct{}, r.cfg.MaxConcurrentBots)
	var wg sync.WaitGroup

	for _, gb := range bots {
		wg.Add(1)
		sem <- struct{}{}
		go func(gb *models.GridBot) {
			defer wg.Done()
			defer func() { <-sem }()
			r.reconcileBot(ctx, gb)
		}(gb)
	}

	wg.Wait()

	ReconcilePasses.WithLabelValues("ok").Inc()
	ReconcileDuration.Observe(time.Since(start).Seconds())
	return nil
}

// reconcileBot сверяет ордера одного бота
//
// ИЗВЕСТНОЕ РАСХОЖДЕНИЕ: выборка берёт ордера в состояниях ВНЕ
// активного набора (уже разрешённые), а не ордера в полёте - так
// делает исходная система. Фильтр сохранён как есть до прояснения
// с продуктом; не инвертировать. См. DESIGN.md.
func (r *Reconciler) reconcileBot(ctx context.Context, gb *models.GridBot) {
	orders, err := r.store.GetOrdersForReconciliation(ctx, gb.ID)
	if err != nil {
		log.Printf("Bot %d: failed to select orders: %v", gb.ID, err)
		return
	}

	for _, o := range orders {
		if !CanRefresh(o) {
			continue
		}

		refreshed, err := r.refreshWithRetry(ctx, o.ID)
		if err != nil {
			// Неуспешный fetch оставляет прежнее состояние ордера
			log.Printf("Bot %d: order %d refresh failed: %v", gb.ID, o.ID, err)
			continue
		}

		r.flagMissingTrade(ctx, refreshed)

		if r.hub != nil {
			r.hub.BroadcastOrderUpdate(refreshed)
		}
	}
}

// refreshWithRetry сверяет ордер с retry на границе планирования
//
// MAX_RETRIES=0 в конфигурации означает "без повторов", тогда как
// retry.Config трактует 0 как "повторять до отмены контекста".
// Здесь всегда минимум одна попытка и никогда не бесконечность:
// упавший ордер не должен заклинивать весь проход сверки.
func (r *Reconciler) refreshWithRetry(ctx context.Context, orderID int) (*models.Order, error) {
	attempts := r.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	return retry.DoWithResult(ctx, func() (*models.Order, error) {
		return r.orders.RefreshState(ctx, orderID)
	}, retry.Config{
		MaxRetries:   attempts,
		InitialDelay: r.cfg.RetryBackoff,
		Multiplier:   2.0,
		JitterFactor: 0.1,
		RetryIf:      retry.RetryIfNotContext,
	})
}

// flagMissingTrade помечает исполненный ордер без записи Trade
//
// Именованная точка расширения: запись Trade здесь НЕ создаётся,
// кандидат фиксируется в логе и метрике.
func (r *Reconciler) flagMissingTrade(ctx context.Context, o *models.Order) {
	if o.State != models.OrderStateFilled && o.State != models.OrderStatePartiallyFilled {
		return
	}

	exists, err := r.store.TradeExists(ctx, o.ID)
	if err != nil {
		log.Printf("Order %d: trade lookup failed: %v", o.ID, err)
		return
	}
	if exists {
		return
	}

	TradeFlagsRaised.Inc()
	log.Printf("Order %d is %s with no trade record yet", o.ID, o.State)
}
