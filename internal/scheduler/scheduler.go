// Package scheduler runs standing requests on cron expressions. Each
// schedule feeds a fixed request text into the runner; an invocation is
// skipped when the previous one for the same schedule is still going.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Runner processes one scheduled request.
type Runner interface {
	Run(ctx context.Context, request string) error
}

type Job struct {
	Name    string
	Spec    string // standard 5-field cron expression
	Request string
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

func New(runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		logger:  logger,
		running: make(map[string]bool),
	}
}

func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Request == "" {
		return fmt.Errorf("schedule needs a name and a request")
	}
	_, err := s.cron.AddFunc(job.Spec, func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	return nil
}

func (s *Scheduler) runJob(job Job) {
	s.mu.Lock()
	if s.running[job.Name] {
		s.mu.Unlock()
		s.logger.Warn("schedule still running, skipping", "schedule", job.Name)
		return
	}
	s.running[job.Name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, job.Name)
		s.mu.Unlock()
	}()

	s.logger.Info("schedule firing", "schedule", job.Name)
	if err := s.runner.Run(context.Background(), job.Request); err != nil {
		s.logger.Error("schedule failed", "schedule", job.Name, "error", err)
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
