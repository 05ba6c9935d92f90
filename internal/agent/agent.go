// Package agent implements the tool-orchestration engine: a small
// finite workflow that plans tool invocations with a completion model,
// executes them against a tool backend, recovers from partial failure,
// and synthesizes a final answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stride-agent/stride/internal/checkpoint"
	"github.com/stride-agent/stride/internal/observe"
	"github.com/stride-agent/stride/internal/provider"
	"github.com/stride-agent/stride/internal/tooling"
)

const (
	DefaultMaxSteps    = 10
	DefaultToolTimeout = 120 * time.Second
	DefaultToolDelay   = 500 * time.Millisecond
)

// LLMClient is the completion surface the engine needs. *provider
// implementations satisfy it.
type LLMClient interface {
	Complete(ctx context.Context, req *provider.CompletionRequest) (*provider.CompletionResponse, error)
}

type Agent struct {
	llm       LLMClient
	model     string
	backend   tooling.Backend
	directory *tooling.Directory

	checkpoints checkpoint.Store
	observer    observe.Observer
	logger      *slog.Logger

	maxSteps    int
	toolTimeout time.Duration
	toolDelay   time.Duration

	sleep func(time.Duration)
	now   func() time.Time
}

type Option func(*Agent)

func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func WithToolTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.toolTimeout = d
		}
	}
}

func WithToolDelay(d time.Duration) Option {
	return func(a *Agent) {
		if d >= 0 {
			a.toolDelay = d
		}
	}
}

func WithCheckpoints(store checkpoint.Store) Option {
	return func(a *Agent) {
		if store != nil {
			a.checkpoints = store
		}
	}
}

func WithObserver(obs observe.Observer) Option {
	return func(a *Agent) {
		if obs != nil {
			a.observer = obs
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func New(llm LLMClient, backend tooling.Backend, opts ...Option) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("agent: completion client is required")
	}
	if backend == nil {
		return nil, errors.New("agent: tool backend is required")
	}

	a := &Agent{
		llm:         llm,
		backend:     backend,
		directory:   tooling.NewDirectory(),
		checkpoints: checkpoint.Noop{},
		observer:    observe.Nop{},
		logger:      slog.Default(),
		maxSteps:    DefaultMaxSteps,
		toolTimeout: DefaultToolTimeout,
		toolDelay:   DefaultToolDelay,
		sleep:       time.Sleep,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Directory exposes the agent's tool directory, mainly for callers that
// want to list what the backend offers.
func (a *Agent) Directory() *tooling.Directory { return a.directory }

// ProcessRequest runs the workflow for one request and always produces
// a textual answer: every phase degrades to a deterministic fallback
// rather than aborting. Extra carries optional request context for the
// planner.
func (a *Agent) ProcessRequest(ctx context.Context, request string, extra map[string]any) (*Result, error) {
	if request == "" {
		return nil, errors.New("agent: request must not be empty")
	}

	start := a.now()
	a.observer.RequestStarted()

	s := &WorkflowState{
		RunID:    uuid.NewString(),
		Context:  extra,
		MaxSteps: a.maxSteps,
	}
	s.append(provider.RoleUser, request)

	a.logger.Info("processing request", "run_id", s.RunID, "max_steps", s.MaxSteps)

	phase := PhaseAnalyze
	for phase != PhaseDone {
		// Reaching the budget forces termination through the
		// response path. Respond itself always runs.
		if phase != PhaseRespond && s.Steps >= s.MaxSteps {
			phase = PhaseRespond
			continue
		}

		a.observer.PhaseEntered(string(phase))
		switch phase {
		case PhaseAnalyze:
			a.analyze(ctx, s)
			phase = PhaseExecute
		case PhaseExecute:
			a.execute(ctx, s)
			phase = nextPhase(s)
		case PhaseRecover:
			a.recoverRun(s)
			phase = PhaseRespond
		case PhaseRespond:
			a.respond(ctx, s)
			phase = PhaseDone
		}
		a.saveCheckpoint(ctx, s, phase)
	}

	elapsed := a.now().Sub(start)
	a.observer.RequestFinished(true, elapsed, s.Steps)
	a.logger.Info("request complete",
		"run_id", s.RunID, "steps", s.Steps, "tools", len(s.Outcomes),
		"elapsed", elapsed)

	return &Result{
		RunID:        s.RunID,
		Success:      true,
		FinalAnswer:  s.FinalAnswer,
		Conversation: s.Conversation,
		Outcomes:     s.Outcomes,
		StepsTaken:   s.Steps,
	}, nil
}

// saveCheckpoint persists the state after a transition. Failures are
// logged, never propagated: checkpointing is best effort.
func (a *Agent) saveCheckpoint(ctx context.Context, s *WorkflowState, next Phase) {
	state, err := json.Marshal(s)
	if err != nil {
		a.logger.Warn("checkpoint encode failed", "run_id", s.RunID, "error", err)
		return
	}
	err = a.checkpoints.Save(ctx, checkpoint.Snapshot{
		RunID:   s.RunID,
		Phase:   string(next),
		Steps:   s.Steps,
		State:   state,
		TakenAt: a.now(),
	})
	if err != nil {
		a.logger.Warn("checkpoint save failed", "run_id", s.RunID, "error", err)
	}
}

// Close releases the tool backend.
func (a *Agent) Close() error {
	return a.backend.Close()
}
