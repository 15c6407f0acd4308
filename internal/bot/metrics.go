package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики жизненного цикла ордеров
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// ============ Счётчики событий ============

// OrdersSubmitted - количество отправленных ордеров по результатам
var OrdersSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gridbot",
		Subsystem: "orders",
		Name:      "submitted_total",
		Help:      "Total number of order submissions",
	},
	[]string{"provider", "result"}, // result: accepted, auth, rejected, network
)

// StateTransitions - переходы состояний ордеров
var StateTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gridbot",
		Subsystem: "orders",
		Name:      "state_transitions_total",
		Help:      "Total number of order state transitions",
	},
	[]string{"from", "to"},
)

// LaddersGenerated - количество сгенерированных лестниц
var LaddersGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gridbot",
		Subsystem: "grid",
		Name:      "ladders_generated_total",
		Help:      "Total number of generated grid ladders",
	},
	[]string{"result"}, // result: ok, invalid, persistence_error
)

// TradeFlagsRaised - ордера, помеченные как кандидаты на запись Trade
var TradeFlagsRaised = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "gridbot",
		Subsystem: "reconcile",
		Name:      "trade_flags_total",
		Help:      "Orders flagged for trade record creation during reconciliation",
	},
)

// ============ Метрики сверки ============

// ReconcilePasses - количество проходов сверки
var ReconcilePasses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gridbot",
		Subsystem: "reconcile",
		Name:      "passes_total",
		Help:      "Total number of reconciliation passes",
	},
	[]string{"result"}, // result: ok, error
)

// ReconcileDuration - длительность прохода сверки
var ReconcileDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "gridbot",
		Subsystem: "reconcile",
		Name:      "pass_duration_seconds",
		Help:      "Duration of a reconciliation pass in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
)

// ============ Метрики шлюза ============

// GatewayLatency - латентность вызовов шлюза биржи
var GatewayLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "gridbot",
		Subsystem: "gateway",
		Name:      "call_latency_seconds",
		Help:      "Latency of exchange gateway calls in seconds",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 5},
	},
	[]string{"provider", "op"}, // op: submit, status, markets
)

// ============ Метрики состояния ============

// ActiveGridBots - количество активных сеточных ботов
var ActiveGridBots = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "gridbot",
		Subsystem: "grid",
		Name:      "active_bots",
		Help:      "Current number of active grid bots",
	},
)

// ============ Вспомогательные функции ============

// RecordSubmit записывает результат отправки ордера
func RecordSubmit(provider, result string) {
	OrdersSubmitted.WithLabelValues(provider, result).Inc()
}

// RecordTransition записывает переход состояния ордера
func RecordTransition(from, to string) {
	StateTransitions.WithLabelValues(from, to).Inc()
}

// RecordGatewayLatency записывает латентность вызова шлюза
func RecordGatewayLatency(provider, op string, seconds float64) {
	GatewayLatency.WithLabelValues(provider, op).Observe(seconds)
}
