// Package metrics provides Prometheus metrics for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks gateway-specific Prometheus metrics.
//
// All metrics use the fridged_ prefix. Components accept a nil *Metrics and
// skip recording, so tests and metrics-disabled deployments pay nothing.
type Metrics struct {
	// ConnectionsTotal counts accepted device connections by handshake result
	ConnectionsTotal *prometheus.CounterVec

	// ActiveConnections tracks currently open device sessions
	ActiveConnections prometheus.Gauge

	// RecordsTotal counts persisted AVL records
	RecordsTotal prometheus.Counter

	// IOElementsTotal counts persisted IO elements
	IOElementsTotal prometheus.Counter

	// FrameErrorsTotal counts structural frame failures by kind
	FrameErrorsTotal *prometheus.CounterVec

	// CommandsTotal counts drained GPRS commands by outcome
	CommandsTotal *prometheus.CounterVec

	// DOUT1TransitionsTotal counts automation output changes by direction
	DOUT1TransitionsTotal *prometheus.CounterVec

	// SessionDuration tracks full session duration in seconds
	SessionDuration prometheus.Histogram
}

// NewMetrics creates gateway metrics registered against reg.
// Panics if registration fails (expected during initialization only).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridged_connections_total",
				Help: "Total accepted device connections by handshake result",
			},
			[]string{"result"}, // "accepted", "rejected"
		),
		ActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fridged_active_connections",
				Help: "Currently open device sessions",
			},
		),
		RecordsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fridged_records_total",
				Help: "Total AVL records persisted",
			},
		),
		IOElementsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fridged_io_elements_total",
				Help: "Total IO elements persisted",
			},
		),
		FrameErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridged_frame_errors_total",
				Help: "Structural frame failures by kind",
			},
			[]string{"kind"}, // "truncated", "bad_preamble", "bad_crc", ...
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridged_commands_total",
				Help: "Drained GPRS commands by outcome",
			},
			[]string{"outcome"}, // "completed", "failed"
		),
		DOUT1TransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fridged_dout1_transitions_total",
				Help: "Automation output changes by direction",
			},
			[]string{"direction"}, // "on", "off"
		),
		SessionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fridged_session_duration_seconds",
				Help:    "Device session duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(
		m.ConnectionsTotal,
		m.ActiveConnections,
		m.RecordsTotal,
		m.IOElementsTotal,
		m.FrameErrorsTotal,
		m.CommandsTotal,
		m.DOUT1TransitionsTotal,
		m.SessionDuration,
	)
	return m
}
