package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SlackRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slack_request_duration_seconds",
		Help:    "Длительность вызовов удалённой платформы",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	SlackRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slack_request_total",
		Help: "Количество вызовов удалённой платформы",
	}, []string{"method", "status"})

	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "message_cache_hits_total",
		Help: "Попадания в кэш сообщений",
	})

	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "message_cache_misses_total",
		Help: "Промахи кэша сообщений (включая устаревшие записи)",
	})

	ResolveAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "message_resolve_attempts_total",
		Help: "Попытки поиска сообщения в истории",
	})

	ResolveFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "message_resolve_failures_total",
		Help: "Поиски, исчерпавшие все попытки",
	})

	JoinAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "channel_join_attempts_total",
		Help: "Попытки входа бота в канал",
	})

	OperationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "operation_duration_seconds",
		Help:    "Длительность пользовательских операций",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		SlackRequestDuration,
		SlackRequestTotal,
		CacheHitsTotal,
		CacheMissesTotal,
		ResolveAttemptsTotal,
		ResolveFailuresTotal,
		JoinAttemptsTotal,
		OperationDuration,
	)
}

// ObserveSlackRequest записывает длительность и статус вызова платформы.
func ObserveSlackRequest(method string, start time.Time, err error) {
	if method == "" {
		method = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	SlackRequestDuration.WithLabelValues(method, status).Observe(duration)
	SlackRequestTotal.WithLabelValues(method, status).Inc()
}

// ObserveOperation записывает длительность пользовательской операции.
func ObserveOperation(operation string, start time.Time) {
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
