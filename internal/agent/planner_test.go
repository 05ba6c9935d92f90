package agent

import (
	"strings"
	"testing"
)

func TestParsePlanAnalysisFenced(t *testing.T) {
	content := "Here is my analysis:\n```json\n" + `{
  "task_analysis": "list the project files",
  "complexity": "simple",
  "selected_tools": [
    {"tool": "filesystem_operation", "parameters": {"operation": "list", "path": "."}, "sequence": 1, "critical": true}
  ],
  "execution_plan": "list then summarize",
  "expected_outcome": "a file listing"
}` + "\n```\nLet me know if you need more."

	analysis, err := parsePlanAnalysis(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.TaskAnalysis != "list the project files" {
		t.Errorf("task = %q", analysis.TaskAnalysis)
	}
	if len(analysis.SelectedTools) != 1 {
		t.Fatalf("tools = %d", len(analysis.SelectedTools))
	}
	spec := analysis.SelectedTools[0]
	if spec.Tool != "filesystem_operation" || !spec.Critical || spec.Sequence != 1 {
		t.Errorf("spec = %+v", spec)
	}
	if spec.Parameters["operation"] != "list" {
		t.Errorf("parameters = %v", spec.Parameters)
	}
}

func TestParsePlanAnalysisBareBraces(t *testing.T) {
	content := `Sure! {"task_analysis": "answer directly", "selected_tools": []} hope that helps`

	analysis, err := parsePlanAnalysis(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.TaskAnalysis != "answer directly" {
		t.Errorf("task = %q", analysis.TaskAnalysis)
	}
	if len(analysis.SelectedTools) != 0 {
		t.Errorf("tools = %d, want 0", len(analysis.SelectedTools))
	}
}

func TestParsePlanAnalysisMissingFields(t *testing.T) {
	analysis, err := parsePlanAnalysis(`{"selected_tools": []}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if analysis.TaskAnalysis == "" {
		t.Error("missing task_analysis not defaulted")
	}
}

func TestParsePlanAnalysisGarbage(t *testing.T) {
	for _, content := range []string{"", "no json here", "{broken", "```json\nnot json\n```"} {
		if _, err := parsePlanAnalysis(content); err == nil {
			t.Errorf("parse(%q): expected error", content)
		}
	}
}

func TestFallbackAnalysisDeterministic(t *testing.T) {
	request := strings.Repeat("x", 150)

	a := fallbackAnalysis(request)
	b := fallbackAnalysis(request)

	if len(a.SelectedTools) != 0 {
		t.Errorf("fallback selected %d tools, want 0", len(a.SelectedTools))
	}
	if a.TaskAnalysis != b.TaskAnalysis || a.ExecutionPlan != b.ExecutionPlan {
		t.Error("fallback not deterministic")
	}
	// Long requests are truncated in the task summary.
	if !strings.HasSuffix(a.TaskAnalysis, "...") {
		t.Errorf("task = %q, want truncated", a.TaskAnalysis)
	}
}
