package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gutachten-org/sitekit/internal/cms"
)

// Metrics holds the server's collectors on an isolated registry so parallel
// servers (and tests) never collide on the default registry.
type Metrics struct {
	Registry *prometheus.Registry

	PageRequests  *prometheus.CounterVec
	RenderSeconds *prometheus.HistogramVec
	CMSLoads      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		PageRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitekit_page_requests_total",
				Help: "Page requests by resolved page kind.",
			},
			[]string{"kind"},
		),
		RenderSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sitekit_page_render_seconds",
				Help:    "Time to resolve and render a page.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"kind"},
		),
		CMSLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitekit_cms_loads_total",
				Help: "Content file loads by the source that answered.",
			},
			[]string{"source"},
		),
	}
	reg.MustRegister(m.PageRequests, m.RenderSeconds, m.CMSLoads)
	return m
}

// ObserveCMS is a cms.Options.Observe hook.
func (m *Metrics) ObserveCMS(_ string, src cms.Source) {
	m.CMSLoads.WithLabelValues(string(src)).Inc()
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
