// Package executor runs a single suite step as an external process under a
// deadline. It has no knowledge of what a step does; it only observes the
// process lifecycle.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// StepRunner executes one step with its resolved variables. Implementations
// must always return a result; step failures are data, not errors.
type StepRunner interface {
	Execute(ctx context.Context, step suite.Step, vars map[string]string) report.StepResult
}

// ErrStepTimeout is recorded when a step outlives its deadline.
var ErrStepTimeout = errors.New("step timed out")

// StepExecutionError is recorded when a step exits with a non-zero status.
type StepExecutionError struct {
	ExitCode int
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step exited with status %d", e.ExitCode)
}
