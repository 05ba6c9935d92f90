package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/stride-agent/stride/internal/provider"
	"github.com/stride-agent/stride/internal/tooling"
)

const plannerSystemPrompt = `You are a planning assistant that decides which tools to use for a request.
Respond with a single JSON object and nothing else.`

// planAnalysis is the JSON contract the planner model is asked to
// fulfil. Unknown fields are ignored; missing fields get defaults.
type planAnalysis struct {
	TaskAnalysis    string     `json:"task_analysis"`
	Complexity      string     `json:"complexity"`
	SelectedTools   []ToolSpec `json:"selected_tools"`
	ExecutionPlan   string     `json:"execution_plan"`
	ExpectedOutcome string     `json:"expected_outcome"`
}

// analyze refreshes the tool directory, asks the model for a plan, and
// records it on the state. Every failure mode degrades to a deterministic
// fallback instead of aborting the run.
func (a *Agent) analyze(ctx context.Context, s *WorkflowState) {
	defer func() { s.Steps++ }()

	request := s.userRequest()

	if err := a.directory.Refresh(ctx, a.backend); err != nil {
		a.logger.Warn("tool backend unreachable, planning without tools",
			"run_id", s.RunID, "error", err)
		s.Task = "Process user request: " + truncate(request, 100)
		s.Plan = nil
		s.append(provider.RoleAssistant,
			"Warning: the tool backend is unreachable, so no tools are available for this request.")
		a.observer.PlanSynthesized(0, true)
		return
	}

	prompt := a.buildPlanPrompt(request, s.Context)
	resp, err := a.llm.Complete(ctx, &provider.CompletionRequest{
		Model: a.model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: plannerSystemPrompt},
			{Role: provider.RoleUser, Content: prompt},
		},
	})

	var analysis planAnalysis
	fallback := false
	if err != nil {
		a.logger.Warn("plan synthesis failed, using fallback",
			"run_id", s.RunID, "error", err)
		analysis = fallbackAnalysis(request)
		fallback = true
	} else if analysis, err = parsePlanAnalysis(resp.Content); err != nil {
		a.logger.Warn("plan response unparseable, using fallback",
			"run_id", s.RunID, "error", err)
		analysis = fallbackAnalysis(request)
		fallback = true
	}

	s.Task = analysis.TaskAnalysis
	s.Plan = analysis.SelectedTools
	s.append(provider.RoleAssistant, fmt.Sprintf(
		"Analysis complete.\nTask: %s\nTools selected: %d\nPlan: %s",
		analysis.TaskAnalysis, len(analysis.SelectedTools), analysis.ExecutionPlan))
	a.observer.PlanSynthesized(len(analysis.SelectedTools), fallback)
}

func (a *Agent) buildPlanPrompt(request string, extra map[string]any) string {
	var b strings.Builder
	b.WriteString("Analyze this user request and decide which tools to use.\n\n")
	fmt.Fprintf(&b, "User request: %s\n\n", request)

	if len(extra) > 0 {
		b.WriteString("Additional context:\n")
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %v\n", k, extra[k])
		}
		b.WriteString("\n")
	}

	b.WriteString("Available tools:\n")
	b.WriteString(formatToolsForPrompt(a.directory.List()))
	b.WriteString("\n\nRespond with JSON in exactly this shape:\n")
	b.WriteString(`{
  "task_analysis": "what the user needs",
  "complexity": "simple|moderate|complex",
  "selected_tools": [
    {
      "tool": "tool_name",
      "parameters": {},
      "reason": "why this tool",
      "sequence": 1,
      "critical": true
    }
  ],
  "execution_plan": "step by step plan",
  "expected_outcome": "what success looks like"
}`)
	b.WriteString("\n\nSelect no tools at all if the request needs none.")
	return b.String()
}

func formatToolsForPrompt(tools []tooling.Descriptor) string {
	if len(tools) == 0 {
		return "(no tools available)"
	}
	var b strings.Builder
	for _, tool := range tools {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name, tool.Description)
		for _, p := range tool.Params {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// parsePlanAnalysis pulls a JSON object out of a model response that may
// wrap it in markdown fences or surrounding prose.
func parsePlanAnalysis(content string) (planAnalysis, error) {
	raw := extractJSON(content)
	if raw == "" {
		return planAnalysis{}, fmt.Errorf("no JSON object in response")
	}

	var analysis planAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return planAnalysis{}, fmt.Errorf("decode plan: %w", err)
	}
	if analysis.TaskAnalysis == "" {
		analysis.TaskAnalysis = "Task analysis not provided"
	}
	return analysis, nil
}

func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if i := strings.Index(content, "```json"); i >= 0 {
		rest := content[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if strings.HasPrefix(content, "```") {
		rest := strings.TrimPrefix(content, "```")
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return ""
}

// fallbackAnalysis is the deterministic plan used when the model cannot
// be reached or answers with something unparseable. It selects no tools,
// which sends the run straight to the response path.
func fallbackAnalysis(request string) planAnalysis {
	return planAnalysis{
		TaskAnalysis:    "Process user request: " + truncate(request, 100),
		Complexity:      "simple",
		SelectedTools:   nil,
		ExecutionPlan:   "Respond directly without tools",
		ExpectedOutcome: "A direct answer to the request",
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
