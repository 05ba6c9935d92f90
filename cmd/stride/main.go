package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/stride-agent/stride/internal/agent"
	"github.com/stride-agent/stride/internal/checkpoint"
	"github.com/stride-agent/stride/internal/config"
	"github.com/stride-agent/stride/internal/observe"
	"github.com/stride-agent/stride/internal/provider"
	"github.com/stride-agent/stride/internal/scheduler"
	"github.com/stride-agent/stride/internal/tooling"
	"github.com/stride-agent/stride/internal/version"
)

func main() {
	configPath := flag.String("config", "stride.yaml", "path to config file")
	request := flag.String("request", "", "process a single request and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *request, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, oneShot string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	registry := provider.NewRegistry()
	for id, pc := range cfg.Models.Providers {
		models := make([]provider.ModelInfo, 0, len(pc.Models))
		for _, m := range pc.Models {
			models = append(models, provider.ModelInfo{
				ID:            m.ID,
				Name:          m.Name,
				ProviderID:    id,
				ContextWindow: m.ContextWindow,
				MaxTokens:     m.MaxTokens,
			})
		}
		p, err := provider.FromSettings(provider.Settings{
			ID:      id,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey,
			API:     pc.API,
			Models:  models,
		})
		if err != nil {
			return err
		}
		if err := registry.Register(p); err != nil {
			return err
		}
	}

	ref, err := provider.ParseModelRef(cfg.Agent.Model)
	if err != nil {
		return fmt.Errorf("agent.model: %w", err)
	}
	llm, err := registry.GetForModel(ref)
	if err != nil {
		return err
	}

	if cfg.Backend.Command == "" {
		return errors.New("backend.command is required")
	}
	backend := tooling.NewMCPBackend(cfg.Backend.Command, cfg.Backend.Args, cfg.Backend.Env)

	store, err := newCheckpointStore(cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer store.Close()

	var obs observe.Observer = observe.Nop{}
	if cfg.Telemetry.Enabled {
		prom := observe.NewPrometheus()
		obs = prom
		go serveMetrics(cfg.Telemetry.Listen, prom, logger)
	}

	ag, err := agent.New(llm, backend,
		agent.WithModel(ref.Model()),
		agent.WithMaxSteps(cfg.Agent.MaxSteps),
		agent.WithToolTimeout(cfg.Agent.ToolTimeoutDuration()),
		agent.WithToolDelay(cfg.Agent.ToolDelayDuration()),
		agent.WithCheckpoints(store),
		agent.WithObserver(obs),
		agent.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer ag.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Schedules) > 0 {
		sched := scheduler.New(agentRunner{agent: ag, logger: logger}, logger)
		for _, sc := range cfg.Schedules {
			if err := sched.Add(scheduler.Job{Name: sc.Name, Spec: sc.Cron, Request: sc.Request}); err != nil {
				return err
			}
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("schedules active", "count", len(cfg.Schedules))
	}

	if oneShot != "" {
		result, err := ag.ProcessRequest(ctx, oneShot, nil)
		if err != nil {
			return err
		}
		fmt.Println(result.FinalAnswer)
		return nil
	}

	return interactive(ctx, ag)
}

func interactive(ctx context.Context, ag *agent.Agent) error {
	fmt.Println(version.Get())
	fmt.Println("Type a request, 'tools' to list discovered tools, or 'quit' to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Println("Commands: help, tools, quit. Anything else is processed as a request.")
			continue
		case "tools":
			tools := ag.Directory().List()
			if len(tools) == 0 {
				fmt.Println("No tools discovered yet. The directory refreshes at each request.")
				continue
			}
			for _, tool := range tools {
				fmt.Printf("  %s - %s\n", tool.Name, tool.Description)
			}
			continue
		}

		result, err := ag.ProcessRequest(ctx, line, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		for _, out := range result.Outcomes {
			status := "ok"
			if !out.Success {
				status = "failed"
			}
			fmt.Printf("  [%s] %s (%.2fs)\n", status, out.Tool, out.Elapsed.Seconds())
		}
		fmt.Printf("\n%s\n\n", result.FinalAnswer)

		if ctx.Err() != nil {
			return nil
		}
	}
}

// agentRunner adapts the agent to the scheduler's Runner interface.
type agentRunner struct {
	agent  *agent.Agent
	logger *slog.Logger
}

func (r agentRunner) Run(ctx context.Context, request string) error {
	result, err := r.agent.ProcessRequest(ctx, request, map[string]any{"trigger": "schedule"})
	if err != nil {
		return err
	}
	r.logger.Info("scheduled request complete",
		"run_id", result.RunID, "steps", result.StepsTaken, "tools", len(result.Outcomes))
	return nil
}

func newCheckpointStore(cfg config.CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Store {
	case "", "none":
		return checkpoint.Noop{}, nil
	case "memory":
		return checkpoint.NewMemory(), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "stride-checkpoints.db"
		}
		return checkpoint.NewSQLite(path)
	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, errors.New("checkpoint.redis.addr is required for the redis store")
		}
		return checkpoint.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTLDuration()), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint store %q (want none, memory, sqlite, or redis)", cfg.Store)
	}
}

func serveMetrics(listen string, prom *observe.Prometheus, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	logger.Info("metrics listening", "addr", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Error("metrics server stopped", "error", err)
	}
}
