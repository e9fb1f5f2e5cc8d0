package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors bundles the Prometheus instruments the service exports.
type Collectors struct {
	registry *prometheus.Registry

	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	LoadedModels prometheus.Gauge
}

func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()

	c := &Collectors{
		registry: reg,
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fluxgate",
			Name:      "tool_calls_total",
			Help:      "Tool calls by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fluxgate",
			Name:      "tool_duration_seconds",
			Help:      "Tool call duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		LoadedModels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fluxgate",
			Name:      "loaded_models",
			Help:      "Models currently held by the registry.",
		}),
	}

	reg.MustRegister(c.ToolCalls, c.ToolDuration, c.LoadedModels)
	return c
}

// Handler serves the /metrics endpoint.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
