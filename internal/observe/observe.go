// Package observe carries the injected metrics surface of the agent.
// Components receive an Observer at construction; there are no
// process-wide metric singletons.
package observe

import "time"

type Observer interface {
	RequestStarted()
	RequestFinished(success bool, d time.Duration, steps int)
	PhaseEntered(phase string)
	PlanSynthesized(size int, fallback bool)
	ToolCallFinished(tool string, success bool, d time.Duration)
}

// Nop discards every observation. It is the default when no observer
// is injected.
type Nop struct{}

func (Nop) RequestStarted() {}

func (Nop) RequestFinished(bool, time.Duration, int) {}

func (Nop) PhaseEntered(string) {}

func (Nop) PlanSynthesized(int, bool) {}

func (Nop) ToolCallFinished(string, bool, time.Duration) {}
