package agent

import (
	"context"
	"fmt"

	"github.com/stride-agent/stride/internal/provider"
)

// execute runs the plan in sequence order. A failed critical invocation
// stops the pass immediately; non-critical failures are recorded and the
// pass continues. Every attempted spec gets exactly one outcome.
func (a *Agent) execute(ctx context.Context, s *WorkflowState) {
	defer func() { s.Steps++ }()

	if len(s.Plan) == 0 {
		s.append(provider.RoleAssistant, "No external tools needed for this request.")
		return
	}

	ordered := orderedPlan(s.Plan)
	for i, spec := range ordered {
		outcome := a.invokeOne(ctx, spec)
		s.Outcomes = append(s.Outcomes, outcome)
		a.observer.ToolCallFinished(outcome.Tool, outcome.Success, outcome.Elapsed)

		if !outcome.Success {
			a.logger.Warn("tool invocation failed",
				"run_id", s.RunID, "tool", spec.Tool, "critical", spec.Critical,
				"error", outcome.Err)
			if spec.Critical {
				break
			}
		}

		if i < len(ordered)-1 {
			a.sleep(a.toolDelay)
		}
	}

	succeeded := 0
	for _, out := range s.Outcomes {
		if out.Success {
			succeeded++
		}
	}
	s.append(provider.RoleAssistant, fmt.Sprintf(
		"Tool execution complete. Successful: %d/%d", succeeded, len(s.Outcomes)))
}

// invokeOne runs a single tool call under the per-call timeout. The
// timeout covers only the call itself, never the inter-call delay. A
// timed out call reports the full timeout bound as its elapsed time.
func (a *Agent) invokeOne(ctx context.Context, spec ToolSpec) ToolOutcome {
	outcome := ToolOutcome{
		Tool:       spec.Tool,
		Parameters: spec.Parameters,
	}

	if _, ok := a.directory.Get(spec.Tool); !ok {
		outcome.Err = fmt.Sprintf("tool %q is not available", spec.Tool)
		outcome.FinishedAt = a.now()
		return outcome
	}

	callCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()

	type callResult struct {
		payload string
		err     error
	}
	done := make(chan callResult, 1)
	start := a.now()

	go func() {
		payload, err := a.backend.Invoke(callCtx, spec.Tool, spec.Parameters)
		done <- callResult{payload: payload, err: err}
	}()

	select {
	case res := <-done:
		outcome.Elapsed = a.now().Sub(start)
		if res.err != nil {
			outcome.Err = res.err.Error()
		} else {
			outcome.Success = true
			outcome.Payload = res.payload
		}
	case <-callCtx.Done():
		outcome.Elapsed = a.toolTimeout
		outcome.Err = fmt.Sprintf("tool execution timed out after %s", a.toolTimeout)
	}

	outcome.FinishedAt = a.now()
	return outcome
}
