package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
)

// counterValue returns the value of the mcp_tool_calls_total series with the
// given labels, or -1 when absent.
func counterValue(t *testing.T, reg *prometheus.Registry, tool, status string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "mcp_tool_calls_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["tool"] == tool && labels["status"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw := NewMetrics(reg).Middleware()

	ok := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{}, nil
	}
	failed := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return nil, errors.New("boom")
	}

	req := fakeToolRequest(`{}`)
	_, _ = mw(ok)(context.Background(), "tools/call", req)
	_, _ = mw(ok)(context.Background(), "tools/call", req)
	_, _ = mw(errorResult("bad"))(context.Background(), "tools/call", req)
	_, _ = mw(failed)(context.Background(), "tools/call", req)
	_, _ = mw(ok)(context.Background(), "tools/list", req)

	if got := counterValue(t, reg, "search_rows", "ok"); got != 2 {
		t.Errorf("ok calls: got %v, want 2", got)
	}
	if got := counterValue(t, reg, "search_rows", "error"); got != 2 {
		t.Errorf("error calls: got %v, want 2", got)
	}

	families, _ := reg.Gather()
	var histograms int
	for _, mf := range families {
		if mf.GetName() == "mcp_tool_call_duration_seconds" {
			histograms = len(mf.GetMetric())
			if got := mf.GetMetric()[0].GetHistogram().GetSampleCount(); got != 4 {
				t.Errorf("duration samples: got %d, want 4", got)
			}
		}
	}
	if histograms != 1 {
		t.Errorf("duration series: got %d, want 1", histograms)
	}
}
