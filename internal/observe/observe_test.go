package observe

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPrometheusExposition(t *testing.T) {
	p := NewPrometheus()

	p.RequestStarted()
	p.PhaseEntered("analyze")
	p.PhaseEntered("execute")
	p.PlanSynthesized(2, false)
	p.ToolCallFinished("filesystem_operation", true, 120*time.Millisecond)
	p.ToolCallFinished("database_query", false, 30*time.Millisecond)
	p.RequestFinished(true, time.Second, 3)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`stride_requests_total{success="true"} 1`,
		`stride_phase_transitions_total{phase="analyze"} 1`,
		`stride_plans_total{fallback="false"} 1`,
		`stride_tool_calls_total{success="true",tool="filesystem_operation"} 1`,
		`stride_tool_calls_total{success="false",tool="database_query"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNopIsSafe(t *testing.T) {
	var obs Observer = Nop{}
	obs.RequestStarted()
	obs.PhaseEntered("analyze")
	obs.PlanSynthesized(0, true)
	obs.ToolCallFinished("x", false, 0)
	obs.RequestFinished(false, 0, 1)
}
