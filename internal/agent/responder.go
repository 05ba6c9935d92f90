package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stride-agent/stride/internal/provider"
)

const responderSystemPrompt = "You are a helpful AI assistant. Answer clearly and concisely."

const payloadExcerptLimit = 300

// respond synthesizes the final answer. If recovery already produced
// one, it stands. A model failure never loses the run: each branch has
// a deterministic fallback built from what the run actually did.
func (a *Agent) respond(ctx context.Context, s *WorkflowState) {
	defer func() { s.Steps++ }()

	if s.FinalAnswer != "" {
		s.append(provider.RoleAssistant, s.FinalAnswer)
		return
	}

	request := s.userRequest()

	var prompt string
	if len(s.Outcomes) == 0 {
		prompt = fmt.Sprintf(
			"The user asked: '%s'\n\nNo external tools were used for this request. "+
				"Provide a direct, helpful answer.", request)
	} else {
		prompt = fmt.Sprintf(
			"The user asked: '%s'\n\nThe following tools were executed:\n\n%s\n\n"+
				"Summarize the results into a clear answer for the user.",
			request, formatOutcomesForPrompt(s.Outcomes))
	}

	resp, err := a.llm.Complete(ctx, &provider.CompletionRequest{
		Model: a.model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: responderSystemPrompt},
			{Role: provider.RoleUser, Content: prompt},
		},
	})

	var answer string
	switch {
	case err == nil && strings.TrimSpace(resp.Content) != "":
		answer = resp.Content
	case len(s.Outcomes) == 0:
		a.logger.Warn("response synthesis failed, using clarification fallback",
			"run_id", s.RunID, "error", err)
		answer = clarificationFallback(request)
	default:
		a.logger.Warn("response synthesis failed, using outcome summary fallback",
			"run_id", s.RunID, "error", err)
		answer = outcomeSummaryFallback(s.Outcomes)
	}

	s.FinalAnswer = answer
	s.append(provider.RoleAssistant, answer)
}

// clarificationFallback quotes the request back so the user can confirm
// or rephrase it.
func clarificationFallback(request string) string {
	return fmt.Sprintf(
		"I understand you're asking about: %s\n\n"+
			"I encountered some technical difficulties generating a full response. "+
			"Could you rephrase your question or provide more detail?", request)
}

// outcomeSummaryFallback builds an answer purely from recorded outcomes.
func outcomeSummaryFallback(outcomes []ToolOutcome) string {
	var b strings.Builder
	b.WriteString("Here's what I completed for your request:\n")
	for _, out := range outcomes {
		if out.Success {
			fmt.Fprintf(&b, "\n• %s: %s", out.Tool, summarizePayload(out.Payload))
		} else {
			fmt.Fprintf(&b, "\n• %s: did not complete (%s)", out.Tool, out.Err)
		}
	}
	return b.String()
}

func formatOutcomesForPrompt(outcomes []ToolOutcome) string {
	var b strings.Builder
	for i, out := range outcomes {
		status := "SUCCESS"
		if !out.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "%d. %s - %s (%.2fs)\n", i+1, status, out.Tool, out.Elapsed.Seconds())
		if out.Success {
			fmt.Fprintf(&b, "   Result: %s\n", excerpt(out.Payload, payloadExcerptLimit))
		} else {
			fmt.Fprintf(&b, "   Error: %s\n", out.Err)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// summarizePayload condenses a tool payload to one line. JSON payloads
// with recognized shapes get a counted summary; everything else is
// excerpted.
func summarizePayload(payload string) string {
	if payload == "" {
		return "Completed successfully"
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(payload), &doc); err == nil {
		if msg, ok := doc["message"].(string); ok && msg != "" {
			return msg
		}
		if files, ok := doc["files"].([]any); ok {
			return fmt.Sprintf("Found %d files", len(files))
		}
		if results, ok := doc["results"].([]any); ok {
			return fmt.Sprintf("Found %d items", len(results))
		}
		if content, ok := doc["content"].(string); ok {
			return fmt.Sprintf("Retrieved content (%d characters)", len(content))
		}
		if _, ok := doc["output"]; ok {
			return "Completed with output"
		}
	}
	return excerpt(payload, 120)
}

func excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
