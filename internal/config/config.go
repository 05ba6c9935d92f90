package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Models     ModelsConfig     `yaml:"models"`
	Agent      AgentConfig      `yaml:"agent"`
	Backend    BackendConfig    `yaml:"backend"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Schedules  []ScheduleConfig `yaml:"schedules"`
}

type ModelsConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	BaseURL string            `yaml:"base_url"`
	APIKey  string            `yaml:"api_key"`
	API     string            `yaml:"api"`
	Models  []ModelDefinition `yaml:"models"`
}

type ModelDefinition struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	ContextWindow int    `yaml:"context_window"`
	MaxTokens     int    `yaml:"max_tokens"`
}

type AgentConfig struct {
	Model       string `yaml:"model"`
	MaxSteps    int    `yaml:"max_steps"`
	ToolTimeout string `yaml:"tool_timeout"`
	ToolDelay   string `yaml:"tool_delay"`
}

// ToolTimeoutDuration returns the per-call timeout, defaulting to two
// minutes when unset or unparseable.
func (a AgentConfig) ToolTimeoutDuration() time.Duration {
	return duration(a.ToolTimeout, 120*time.Second)
}

// ToolDelayDuration returns the pause between consecutive tool calls,
// defaulting to half a second.
func (a AgentConfig) ToolDelayDuration() time.Duration {
	return duration(a.ToolDelay, 500*time.Millisecond)
}

type BackendConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
	Env     []string `yaml:"env"`
}

type CheckpointConfig struct {
	Store string      `yaml:"store"`
	Path  string      `yaml:"path"`
	Redis RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

func (r RedisConfig) TTLDuration() time.Duration {
	return duration(r.TTL, 24*time.Hour)
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// ScheduleConfig is a standing request run on a cron expression.
type ScheduleConfig struct {
	Name    string `yaml:"name"`
	Cron    string `yaml:"cron"`
	Request string `yaml:"request"`
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)}`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func expandEnvInProviders(cfg *Config) {
	for name, p := range cfg.Models.Providers {
		p.BaseURL = expandEnv(p.BaseURL)
		p.APIKey = expandEnv(p.APIKey)
		cfg.Models.Providers[name] = p
	}
}

func duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	expandEnvInProviders(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Agent.MaxSteps <= 0 {
		cfg.Agent.MaxSteps = 10
	}
	if cfg.Checkpoint.Store == "" {
		cfg.Checkpoint.Store = "none"
	}
	if cfg.Telemetry.Listen == "" {
		cfg.Telemetry.Listen = "localhost:9090"
	}
}
