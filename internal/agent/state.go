package agent

import (
	"sort"

	"github.com/stride-agent/stride/internal/provider"
)

// Phase names a workflow node. Analyze always hands off to Execute;
// after an Execute pass the transition function picks the next phase;
// Recover always hands off to Respond; Respond is terminal.
type Phase string

const (
	PhaseAnalyze Phase = "analyze"
	PhaseExecute Phase = "execute"
	PhaseRespond Phase = "respond"
	PhaseRecover Phase = "recover"
	PhaseDone    Phase = "done"
)

// WorkflowState is the single mutable record threaded through a run.
// The conversation is append-only; the plan is written once by the
// planner and read everywhere else.
type WorkflowState struct {
	RunID        string             `json:"run_id"`
	Conversation []provider.Message `json:"conversation"`
	Context      map[string]any     `json:"context,omitempty"`
	Task         string             `json:"task,omitempty"`
	Plan         []ToolSpec         `json:"plan,omitempty"`
	Outcomes     []ToolOutcome      `json:"outcomes,omitempty"`
	Steps        int                `json:"steps"`
	MaxSteps     int                `json:"max_steps"`
	FinalAnswer  string             `json:"final_answer,omitempty"`
}

func (s *WorkflowState) append(role provider.Role, content string) {
	s.Conversation = append(s.Conversation, provider.Message{Role: role, Content: content})
}

// userRequest returns the text of the first user message, the request
// that started the run.
func (s *WorkflowState) userRequest() string {
	for _, m := range s.Conversation {
		if m.Role == provider.RoleUser {
			return m.Content
		}
	}
	return ""
}

// nextPhase decides where the workflow goes after an Execute pass. The
// rules apply in order: an exhausted step budget or an empty plan forces
// the response path, a plan with no outcomes yet loops back to Execute,
// a critical failure routes through recovery, and anything else responds.
func nextPhase(s *WorkflowState) Phase {
	switch {
	case s.Steps >= s.MaxSteps:
		return PhaseRespond
	case len(s.Plan) == 0:
		return PhaseRespond
	case len(s.Outcomes) == 0:
		return PhaseExecute
	case criticalFailure(s):
		return PhaseRecover
	default:
		return PhaseRespond
	}
}

// criticalFailure reports whether any recorded outcome corresponds to a
// failed invocation of a critical spec. Outcomes are matched to specs by
// execution position, so duplicate tool names resolve unambiguously.
func criticalFailure(s *WorkflowState) bool {
	ordered := orderedPlan(s.Plan)
	for i, out := range s.Outcomes {
		if out.Success {
			continue
		}
		if i < len(ordered) && ordered[i].Critical {
			return true
		}
	}
	return false
}

// orderedPlan returns the plan sorted by Sequence. The sort is stable:
// specs sharing a sequence number keep their planner-given order.
func orderedPlan(plan []ToolSpec) []ToolSpec {
	ordered := make([]ToolSpec, len(plan))
	copy(ordered, plan)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence < ordered[j].Sequence
	})
	return ordered
}
