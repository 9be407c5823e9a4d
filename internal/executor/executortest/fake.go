// Package executortest provides a scripted StepRunner for exercising the
// suite state machine without spawning processes.
package executortest

import (
	"context"
	"sync"
	"time"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// Outcome scripts the result of one step name.
type Outcome struct {
	ExitCode int
	TimedOut bool
	Output   string
}

// Call records one Execute invocation.
type Call struct {
	Step suite.Step
	Vars map[string]string
}

// Fake returns scripted results keyed by step name. Unscripted steps pass.
type Fake struct {
	Outcomes map[string]Outcome
	// Hook runs inside Execute before the result is built, e.g. to cancel
	// the run context mid-step.
	Hook func(step suite.Step)
	// Step is the simulated wall time each step consumes.
	Step time.Duration

	mu    sync.Mutex
	calls []Call
	clock time.Time
}

// New builds a Fake with the supplied outcomes.
func New(outcomes map[string]Outcome) *Fake {
	return &Fake{
		Outcomes: outcomes,
		Step:     time.Second,
		clock:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// Execute implements executor.StepRunner.
func (f *Fake) Execute(ctx context.Context, step suite.Step, vars map[string]string) report.StepResult {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Step: step, Vars: vars})
	start := f.clock
	f.clock = f.clock.Add(f.Step)
	end := f.clock
	f.mu.Unlock()

	if f.Hook != nil {
		f.Hook(step)
	}

	result := report.StepResult{
		Name:        step.Name,
		Description: step.Description,
		Required:    step.Required,
		Vars:        vars,
		StartTime:   start,
		ExitCode:    report.NoExitCode,
	}

	out := f.Outcomes[step.Name]
	result.Output = out.Output
	switch {
	case ctx.Err() != nil:
		result.Status = report.StepCancelled
	case out.TimedOut:
		result.Status = report.StepTimeout
		result.TimedOut = true
	case out.ExitCode != 0:
		result.Status = report.StepFailed
		result.ExitCode = out.ExitCode
	default:
		result.Status = report.StepPassed
		result.Success = true
		result.ExitCode = 0
	}
	result.Finish(end)
	return result
}

// Calls returns the executed steps in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

// Names returns the executed step names in order.
func (f *Fake) Names() []string {
	calls := f.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Step.Name)
	}
	return out
}
