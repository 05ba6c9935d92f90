package config

import (
	"os"
	"testing"
	"time"
)

const testYAML = `
models:
  providers:
    anthropic:
      api_key: "${ANTHROPIC_API_KEY}"
      api: anthropic-messages
      models:
        - id: claude-sonnet-4
          name: Claude Sonnet 4
          context_window: 200000
          max_tokens: 64000
    openai:
      base_url: "${OPENAI_BASE_URL}"
      api_key: "${OPENAI_API_KEY}"
      api: openai-completions

agent:
  model: anthropic/claude-sonnet-4
  max_steps: 6
  tool_timeout: "90s"
  tool_delay: "250ms"

backend:
  command: stride-tools
  args: ["-workspace", "/tmp/stride"]
  env: ["STRIDE_DB=sample.db"]

checkpoint:
  store: redis
  redis:
    addr: localhost:6379
    ttl: "12h"

telemetry:
  enabled: true
  listen: localhost:9102

schedules:
  - name: nightly-report
    cron: "0 2 * * *"
    request: "Summarize yesterday's orders"
`

func TestParseConfig(t *testing.T) {
	cfg, err := Parse([]byte(testYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Agent.Model != "anthropic/claude-sonnet-4" {
		t.Errorf("model = %q", cfg.Agent.Model)
	}
	if cfg.Agent.MaxSteps != 6 {
		t.Errorf("max_steps = %d", cfg.Agent.MaxSteps)
	}
	if got := cfg.Agent.ToolTimeoutDuration(); got != 90*time.Second {
		t.Errorf("tool_timeout = %s", got)
	}
	if got := cfg.Agent.ToolDelayDuration(); got != 250*time.Millisecond {
		t.Errorf("tool_delay = %s", got)
	}

	if cfg.Backend.Command != "stride-tools" || len(cfg.Backend.Args) != 2 {
		t.Errorf("backend = %+v", cfg.Backend)
	}

	if cfg.Checkpoint.Store != "redis" {
		t.Errorf("checkpoint store = %q", cfg.Checkpoint.Store)
	}
	if got := cfg.Checkpoint.Redis.TTLDuration(); got != 12*time.Hour {
		t.Errorf("redis ttl = %s", got)
	}

	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Cron != "0 2 * * *" {
		t.Errorf("schedules = %+v", cfg.Schedules)
	}

	anthropic := cfg.Models.Providers["anthropic"]
	if anthropic.API != "anthropic-messages" || len(anthropic.Models) != 1 {
		t.Errorf("anthropic provider = %+v", anthropic)
	}
}

func TestEnvExpansion(t *testing.T) {
	os.Setenv("ANTHROPIC_API_KEY", "sk-test-123")
	defer os.Unsetenv("ANTHROPIC_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")

	cfg, err := Parse([]byte(testYAML))
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.Models.Providers["anthropic"].APIKey; got != "sk-test-123" {
		t.Errorf("expanded key = %q", got)
	}
	// Unset variables stay as-is rather than expanding to empty.
	if got := cfg.Models.Providers["openai"].APIKey; got != "${OPENAI_API_KEY}" {
		t.Errorf("unset key = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("agent:\n  model: openai/gpt-4o\n"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Agent.MaxSteps != 10 {
		t.Errorf("default max_steps = %d", cfg.Agent.MaxSteps)
	}
	if got := cfg.Agent.ToolTimeoutDuration(); got != 120*time.Second {
		t.Errorf("default tool_timeout = %s", got)
	}
	if got := cfg.Agent.ToolDelayDuration(); got != 500*time.Millisecond {
		t.Errorf("default tool_delay = %s", got)
	}
	if cfg.Checkpoint.Store != "none" {
		t.Errorf("default checkpoint store = %q", cfg.Checkpoint.Store)
	}
	if cfg.Telemetry.Listen != "localhost:9090" {
		t.Errorf("default telemetry listen = %q", cfg.Telemetry.Listen)
	}
}

func TestDurationFallbackOnGarbage(t *testing.T) {
	cfg, err := Parse([]byte("agent:\n  tool_timeout: \"soon\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Agent.ToolTimeoutDuration(); got != 120*time.Second {
		t.Errorf("tool_timeout = %s, want fallback", got)
	}
}
