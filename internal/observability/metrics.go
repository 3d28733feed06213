// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the account service collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	SessionsCreated prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_graphql_requests_total",
				Help: "Total number of GraphQL requests by outcome",
			},
			[]string{"outcome"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accounts_graphql_errors_total",
				Help: "Total number of GraphQL errors returned to clients by code",
			},
			[]string{"code"},
		),
		RequestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "accounts_graphql_request_duration_seconds",
				Help:    "GraphQL request execution time",
				Buckets: prometheus.DefBuckets,
			},
		),
		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "accounts_sessions_created_total",
				Help: "Total number of sessions opened by login",
			},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.ErrorsTotal, m.RequestDuration, m.SessionsCreated)
	return m
}

// ObserveRequest records one GraphQL request and the codes of the errors it
// returned.
func (m *Metrics) ObserveRequest(elapsed time.Duration, errorCodes []string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if len(errorCodes) > 0 {
		outcome = "error"
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(elapsed.Seconds())
	for _, code := range errorCodes {
		m.ErrorsTotal.WithLabelValues(code).Inc()
	}
}

// SessionCreated records a successful login.
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}
