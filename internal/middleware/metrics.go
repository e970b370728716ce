package middleware

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the tool-call collectors.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the tool-call collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "MCP tool calls by tool and outcome.",
		}, []string{"tool", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcp_tool_call_duration_seconds",
			Help:    "MCP tool call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
}

// Middleware returns MCP SDK middleware recording tools/call outcomes.
// A call is "error" when the handler fails or the result is a tool error.
func (m *Metrics) Middleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			start := time.Now()
			result, err := next(ctx, method, req)

			tool := toolName(req)
			status := "ok"
			if err != nil || isToolError(result) {
				status = "error"
			}
			m.calls.WithLabelValues(tool, status).Inc()
			m.duration.WithLabelValues(tool).Observe(time.Since(start).Seconds())

			return result, err
		}
	}
}
