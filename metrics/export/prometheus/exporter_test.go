package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	smsverify "github.com/MrEthical07/smsverify"
)

type fakeSource struct {
	snapshot smsverify.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() smsverify.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                       { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: smsverify.MetricsSnapshot{
			Counters:   map[smsverify.MetricID]uint64{},
			Histograms: map[smsverify.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: smsverify.MetricsSnapshot{
			Counters: map[smsverify.MetricID]uint64{
				smsverify.MetricSendSuccess: 7,
			},
			Histograms: map[smsverify.MetricID][]uint64{
				smsverify.MetricDispatchLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "smsverify_send_success_total 7") {
		t.Fatalf("expected send_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "smsverify_dispatch_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "smsverify_dispatch_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "smsverify_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: smsverify.MetricsSnapshot{
			Counters:   map[smsverify.MetricID]uint64{smsverify.MetricSendSuccess: 1},
			Histograms: map[smsverify.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
