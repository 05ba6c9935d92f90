package agent

import (
	"time"

	"github.com/stride-agent/stride/internal/provider"
)

// ToolSpec is one planned tool invocation. Specs are produced once by
// the planner and never mutated; Sequence defines execution order, with
// ties keeping their original list position.
type ToolSpec struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	Reason     string         `json:"reason,omitempty"`
	Sequence   int            `json:"sequence"`
	Critical   bool           `json:"critical"`
}

// ToolOutcome records one attempted invocation. Exactly one outcome
// exists per attempted spec, including timeouts and transport errors;
// specs skipped after a critical failure have no outcome at all.
type ToolOutcome struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	Payload    string         `json:"payload,omitempty"`
	Success    bool           `json:"success"`
	Elapsed    time.Duration  `json:"elapsed"`
	FinishedAt time.Time      `json:"finished_at"`
	Err        string         `json:"error,omitempty"`
}

// Result is what ProcessRequest hands back to the caller.
type Result struct {
	RunID        string
	Success      bool
	FinalAnswer  string
	Conversation []provider.Message
	Outcomes     []ToolOutcome
	StepsTaken   int
}
