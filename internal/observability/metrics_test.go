package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}
	if m.SessionsOpened == nil || m.ToolExecutions == nil || m.HandoffEvents == nil {
		t.Fatal("expected core collectors to be initialized")
	}
}

func TestMetricsHandlerExposesRecordedSamples(t *testing.T) {
	m := NewMetrics()
	m.SessionsOpened.WithLabelValues("B").Inc()
	m.ToolExecutions.WithLabelValues("search_knowledge_base", "ok").Inc()
	m.HandoffEvents.WithLabelValues("B").Inc()
	m.ErrorsTotal.WithLabelValues("ToolBadArguments").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`voicegate_sessions_opened_total{role="B"} 1`,
		`voicegate_tool_executions_total{outcome="ok",tool="search_knowledge_base"} 1`,
		`voicegate_handoff_events_total{target_role="B"} 1`,
		`voicegate_errors_total{kind="ToolBadArguments"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}

func TestMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.SessionsOpened.WithLabelValues("A").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), `role="A"} 1`) {
		t.Fatal("expected separate Metrics instances to use independent registries")
	}
}
