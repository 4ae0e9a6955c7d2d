// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	adminActions   *prometheus.CounterVec
	authorizations *prometheus.CounterVec
	proxyForwards  *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		adminActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokengate_admin_actions_total",
				Help: "Number of admin actions processed, by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		authorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokengate_authorizations_total",
				Help: "Number of OAuth authorization callbacks, by outcome",
			},
			[]string{"outcome"},
		),
		proxyForwards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokengate_proxy_forwards_total",
				Help: "Number of proxy forward attempts, by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(m.adminActions, m.authorizations, m.proxyForwards)

	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
		Timeout:  10 * time.Second,
	})
}

// outcomeLabel maps an action result to a metric label.
func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
