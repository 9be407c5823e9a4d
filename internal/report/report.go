package report

import (
	"time"

	"github.com/stolostron/capitest/internal/exitcodes"
)

// StepStatus is the recorded state of a single declared step.
type StepStatus string

const (
	StepPassed    StepStatus = "passed"
	StepFailed    StepStatus = "failed"
	StepTimeout   StepStatus = "timeout"
	StepSkipped   StepStatus = "skipped"
	StepCancelled StepStatus = "cancelled"
)

// Outcome is the terminal state of a suite.
type Outcome string

const (
	OutcomePassed    Outcome = "passed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// NoExitCode marks a step whose process never exited on its own.
const NoExitCode = -1

// StepResult captures the outcome of a single step.
type StepResult struct {
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	Status          StepStatus        `json:"status"`
	Required        bool              `json:"required"`
	Success         bool              `json:"success"`
	ExitCode        int               `json:"exitCode"`
	TimedOut        bool              `json:"timedOut"`
	StartTime       time.Time         `json:"startTime,omitzero"`
	EndTime         time.Time         `json:"endTime,omitzero"`
	Duration        time.Duration     `json:"-"`
	DurationSeconds float64           `json:"durationSeconds"`
	Output          string            `json:"output,omitempty"`
	Command         string            `json:"command,omitempty"`
	Vars            map[string]string `json:"vars,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Executed reports whether the step actually ran.
func (s StepResult) Executed() bool {
	return !s.StartTime.IsZero()
}

// Finish stamps the end time and derived durations.
func (s *StepResult) Finish(end time.Time) {
	s.EndTime = end
	s.Duration = end.Sub(s.StartTime)
	s.DurationSeconds = s.Duration.Seconds()
}

// SuiteResult aggregates the step results of one suite.
type SuiteResult struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	StartTime       time.Time     `json:"startTime,omitzero"`
	EndTime         time.Time     `json:"endTime,omitzero"`
	Duration        time.Duration `json:"-"`
	DurationSeconds float64       `json:"durationSeconds"`
	Steps           []StepResult  `json:"steps"`
	Outcome         Outcome       `json:"outcome"`
}

// StepCounts tallies step statuses.
type StepCounts struct {
	Passed    int `json:"passed"`
	Failed    int `json:"failed"`
	TimedOut  int `json:"timedOut"`
	Skipped   int `json:"skipped"`
	Cancelled int `json:"cancelled"`
}

// Add folds a single status into the counts.
func (c *StepCounts) Add(status StepStatus) {
	switch status {
	case StepPassed:
		c.Passed++
	case StepFailed:
		c.Failed++
	case StepTimeout:
		c.TimedOut++
	case StepSkipped:
		c.Skipped++
	case StepCancelled:
		c.Cancelled++
	}
}

// Counts returns the step status tally for the suite.
func (s SuiteResult) Counts() StepCounts {
	var c StepCounts
	for _, step := range s.Steps {
		c.Add(step.Status)
	}
	return c
}

// InvalidSuite describes a registry entry that failed validation.
type InvalidSuite struct {
	ID     string `json:"id"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// RunReport is the top-level document produced for one invocation.
type RunReport struct {
	RunID           string         `json:"runId"`
	StartTime       time.Time      `json:"startTime"`
	EndTime         time.Time      `json:"endTime"`
	Duration        time.Duration  `json:"-"`
	DurationSeconds float64        `json:"durationSeconds"`
	Selector        string         `json:"selector"`
	DryRun          bool           `json:"dryRun"`
	TotalSuites     int            `json:"totalSuites"`
	Passed          int            `json:"passed"`
	Failed          int            `json:"failed"`
	Skipped         int            `json:"skipped"`
	Steps           StepCounts     `json:"steps"`
	Suites          []SuiteResult  `json:"suites"`
	Invalid         []InvalidSuite `json:"invalid,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	ExitCode        int            `json:"exitCode"`
}

// Finalize stamps the end time and recomputes totals and the exit code
// from the suite outcomes.
func (r *RunReport) Finalize(end time.Time) {
	r.EndTime = end
	r.Duration = end.Sub(r.StartTime)
	r.DurationSeconds = r.Duration.Seconds()

	r.TotalSuites = len(r.Suites)
	r.Passed, r.Failed, r.Skipped = 0, 0, 0
	r.Steps = StepCounts{}
	for _, s := range r.Suites {
		switch s.Outcome {
		case OutcomePassed:
			r.Passed++
		case OutcomeFailed:
			r.Failed++
		default:
			r.Skipped++
		}
		for _, step := range s.Steps {
			r.Steps.Add(step.Status)
		}
	}

	r.ExitCode = exitcodes.Success
	if r.Failed > 0 || r.Skipped > 0 {
		r.ExitCode = exitcodes.SuiteFailure
	}
}

// Succeeded reports whether every executed suite passed.
func (r RunReport) Succeeded() bool {
	return r.ExitCode == exitcodes.Success
}
