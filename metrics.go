package iris

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instrumentation counters of the import pipeline.
// All counters live in a private registry so tests can run several
// instances side by side.
type Metrics struct {
	registry *prometheus.Registry

	Ticks             prometheus.Counter
	FullReloads       prometheus.Counter
	TrainsPersisted   prometheus.Counter
	StopsPersisted    prometheus.Counter
	StopsUpdated      prometheus.Counter
	MessagesPersisted prometheus.Counter
	ImportErrors      prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_scheduler_ticks_total",
			Help: "Scheduler ticks processed.",
		}),
		FullReloads: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_scheduler_full_reloads_total",
			Help: "Full timetable reloads performed.",
		}),
		TrainsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_trains_persisted_total",
			Help: "Newly persisted trains.",
		}),
		StopsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_stops_persisted_total",
			Help: "Newly persisted stops.",
		}),
		StopsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_stops_updated_total",
			Help: "Stops patched by the change feed.",
		}),
		MessagesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_messages_persisted_total",
			Help: "Newly persisted messages.",
		}),
		ImportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "iris_import_errors_total",
			Help: "Station imports that failed and were skipped.",
		}),
	}
}

// Handler serves the metrics in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
