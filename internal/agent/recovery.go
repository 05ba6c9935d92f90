package agent

import (
	"fmt"
	"strings"

	"github.com/stride-agent/stride/internal/provider"
)

// recoverRun builds a best-effort partial answer after a critical
// failure. It never calls the completion service: the report is
// assembled purely from recorded outcomes, so recovery cannot itself
// fail. The answer it produces carries through the response phase
// unchanged.
func (a *Agent) recoverRun(s *WorkflowState) {
	defer func() { s.Steps++ }()

	var succeeded, failed []ToolOutcome
	for _, out := range s.Outcomes {
		if out.Success {
			succeeded = append(succeeded, out)
		} else {
			failed = append(failed, out)
		}
	}

	var b strings.Builder
	b.WriteString("I ran into problems while processing your request, but here is what I can report.")

	if len(succeeded) > 0 {
		fmt.Fprintf(&b, "\n\nI successfully completed %d operation(s):", len(succeeded))
		for _, out := range succeeded {
			fmt.Fprintf(&b, "\n• %s: %s", out.Tool, summarizePayload(out.Payload))
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "\n\n%d operation(s) did not complete:", len(failed))
		for _, out := range failed {
			fmt.Fprintf(&b, "\n• %s: %s", out.Tool, out.Err)
		}
	}
	if len(s.Outcomes) == 0 {
		fmt.Fprintf(&b, "\n\nRegarding your request: %s", s.userRequest())
	}
	b.WriteString("\n\nPlease let me know if you'd like me to retry any of these operations or take a different approach.")

	s.FinalAnswer = b.String()
	s.append(provider.RoleAssistant, "Recovered from partial tool failure; reporting what completed.")
}
