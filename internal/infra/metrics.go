package infra

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Monitor: количество и длительность циклов сканирования
	ScansTotal   prometheus.Counter
	ScanDuration prometheus.Histogram

	// Сколько акторов переведено в monitored
	FlaggedTotal prometheus.Counter

	// Ошибки скана по этапам: count, flag, audit
	ScanErrors *prometheus.CounterVec

	// 1 — монитор запущен
	MonitorRunning prometheus.Gauge

	// Gate: исходы проверки доступа (allowed, unauthenticated, forbidden, error)
	GateDecisions *prometheus.CounterVec

	// Best-effort аудит: неудачные вставки записей шлюзом
	AuditAppendFailures prometheus.Counter

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Размер локального списка наблюдения (синхронизируется через Redis)
	WatchlistSize prometheus.Gauge

	// Gate: запросы помеченных акторов по исходу (allowed, forbidden)
	WatchedRequests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		ScansTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "monitor_scans_total",
			Help: "Total number of completed threshold scans.",
		}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_scan_duration_seconds",
			Help:    "Histogram of threshold scan durations.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		FlaggedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "monitor_flagged_actors_total",
			Help: "Total number of actors transitioned into the monitored state.",
		}),
		ScanErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_scan_errors_total",
			Help: "Per-actor scan failures by stage.",
		}, []string{"stage"}),
		MonitorRunning: f.NewGauge(prometheus.GaugeOpts{
			Name: "monitor_running",
			Help: "Whether the threshold monitor loop is running (1) or stopped (0).",
		}),
		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_decisions_total",
			Help: "Access gate outcomes.",
		}, []string{"outcome"}),
		AuditAppendFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "gate_audit_append_failures_total",
			Help: "Audit records the access gate failed to append.",
		}),
		CircuitBreakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "store_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open).",
		}, []string{"breaker"}),
		WatchlistSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "watchlist_monitored_actors",
			Help: "Monitored actors known to this instance via Redis signals.",
		}),
		WatchedRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gate_watched_requests_total",
			Help: "Gated requests from actors on the monitored watchlist.",
		}, []string{"outcome"}),
	}
}

// SetBreakerState реализует audit.BreakerObserver.
func (m *Metrics) SetBreakerState(name string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(v)
}
