package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type siteMetrics struct {
	registry *prometheus.Registry

	pageViews       *prometheus.CounterVec
	activeStreams   *prometheus.GaugeVec
	frames          *prometheus.CounterVec
	toggles         *prometheus.CounterVec
	contactMessages *prometheus.CounterVec
}

func newSiteMetrics() *siteMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &siteMetrics{
		registry: reg,
		pageViews: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "page_views_total",
			Help:      "Rendered pages by route",
		}, []string{"page"}),
		activeStreams: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "typewriter",
			Name:      "active_streams",
			Help:      "Open headline streams by transport",
		}, []string{"transport"}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "typewriter",
			Name:      "frames_sent_total",
			Help:      "Headline frames written to clients by transport",
		}, []string{"transport"}),
		toggles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "systems",
			Name:      "toggles_total",
			Help:      "Unlock and lock requests by action",
		}, []string{"action"}),
		contactMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portfolio",
			Name:      "contact_messages_total",
			Help:      "Contact form submissions by result",
		}, []string{"result"}),
	}
}

func (m *siteMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
