package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts tool traffic and authorization outcomes.
type Metrics struct {
	toolCalls *prometheus.CounterVec
	denials   *prometheus.CounterVec
}

// Tool call outcomes.
const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeDenied  = "denied"
	outcomeLimited = "limited"
)

// NewMetrics registers the proxy's collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rmcp_tool_calls_total",
			Help: "Tool calls by tool, role, and outcome.",
		}, []string{"tool", "role", "outcome"}),
		denials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rmcp_permission_denials_total",
			Help: "Authorization denials by tool and role.",
		}, []string{"tool", "role"}),
	}
}

func (m *Metrics) observe(tool, role, outcome string) {
	m.toolCalls.WithLabelValues(tool, role, outcome).Inc()
	if outcome == outcomeDenied {
		m.denials.WithLabelValues(tool, role).Inc()
	}
}
