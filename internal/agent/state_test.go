package agent

import "testing"

func TestNextPhase(t *testing.T) {
	plan := []ToolSpec{{Tool: "a", Sequence: 1, Critical: true}, {Tool: "b", Sequence: 2}}

	tests := []struct {
		name  string
		state WorkflowState
		want  Phase
	}{
		{
			name:  "budget exhausted",
			state: WorkflowState{Steps: 10, MaxSteps: 10, Plan: plan},
			want:  PhaseRespond,
		},
		{
			name:  "budget exhausted wins over critical failure",
			state: WorkflowState{Steps: 10, MaxSteps: 10, Plan: plan, Outcomes: []ToolOutcome{{Tool: "a"}}},
			want:  PhaseRespond,
		},
		{
			name:  "empty plan",
			state: WorkflowState{Steps: 2, MaxSteps: 10},
			want:  PhaseRespond,
		},
		{
			name:  "plan pending execution",
			state: WorkflowState{Steps: 2, MaxSteps: 10, Plan: plan},
			want:  PhaseExecute,
		},
		{
			name: "critical failure",
			state: WorkflowState{Steps: 2, MaxSteps: 10, Plan: plan,
				Outcomes: []ToolOutcome{{Tool: "a", Success: false}}},
			want: PhaseRecover,
		},
		{
			name: "non-critical failure",
			state: WorkflowState{Steps: 2, MaxSteps: 10, Plan: plan,
				Outcomes: []ToolOutcome{{Tool: "a", Success: true}, {Tool: "b", Success: false}}},
			want: PhaseRespond,
		},
		{
			name: "all succeeded",
			state: WorkflowState{Steps: 2, MaxSteps: 10, Plan: plan,
				Outcomes: []ToolOutcome{{Tool: "a", Success: true}, {Tool: "b", Success: true}}},
			want: PhaseRespond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextPhase(&tt.state); got != tt.want {
				t.Errorf("nextPhase = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCriticalFailurePositionalMatch(t *testing.T) {
	// Two invocations of the same tool: only the second is critical.
	// A failure of the first must not count as critical.
	plan := []ToolSpec{
		{Tool: "database_query", Sequence: 1, Critical: false},
		{Tool: "database_query", Sequence: 2, Critical: true},
	}

	s := &WorkflowState{Plan: plan, Outcomes: []ToolOutcome{
		{Tool: "database_query", Success: false},
		{Tool: "database_query", Success: true},
	}}
	if criticalFailure(s) {
		t.Error("non-critical failure at position 0 reported as critical")
	}

	s.Outcomes[0].Success = true
	s.Outcomes[1].Success = false
	if !criticalFailure(s) {
		t.Error("critical failure at position 1 not detected")
	}
}

func TestOrderedPlanStableSort(t *testing.T) {
	plan := []ToolSpec{
		{Tool: "third", Sequence: 3},
		{Tool: "first", Sequence: 1},
		{Tool: "tie_a", Sequence: 2},
		{Tool: "tie_b", Sequence: 2},
	}

	ordered := orderedPlan(plan)
	got := make([]string, len(ordered))
	for i, spec := range ordered {
		got[i] = spec.Tool
	}

	want := []string{"first", "tie_a", "tie_b", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	// The input slice is untouched.
	if plan[0].Tool != "third" {
		t.Error("orderedPlan mutated its input")
	}
}
