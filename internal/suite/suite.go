// Package suite holds the suite definition model and the registry that loads,
// validates and indexes suite records.
package suite

import (
	"slices"
	"strings"
	"time"
)

// ExecutionMode controls how steps inside a suite are scheduled.
type ExecutionMode string

const (
	ModeSequential ExecutionMode = "sequential"
	// ModeParallel is accepted in records but reserved; suites declaring it
	// still run their steps sequentially.
	ModeParallel ExecutionMode = "parallel"
)

// DefaultTimeoutSeconds applies to steps that declare no timeout.
const DefaultTimeoutSeconds = 120

// MaxTimeoutSeconds caps any step timeout at seven days.
const MaxTimeoutSeconds = 7 * 24 * 60 * 60

// Definition is one loaded suite. Definitions are immutable once the registry
// is built.
type Definition struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Path          string            `json:"path"`
	ExecutionMode ExecutionMode     `json:"executionMode"`
	StopOnFailure bool              `json:"stopOnFailure"`
	Tags          []string          `json:"tags,omitempty"`
	Vars          map[string]string `json:"vars,omitempty"`
	Schedule      string            `json:"schedule,omitempty"`
	Steps         []Step            `json:"steps"`
}

// Step is one declared external command invocation.
type Step struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds"`
	Required       bool              `json:"required"`
	Vars           map[string]string `json:"vars,omitempty"`
}

// Timeout returns the step deadline as a duration.
func (s Step) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// HasTag reports whether the suite carries tag, ignoring case.
func (d Definition) HasTag(tag string) bool {
	return slices.ContainsFunc(d.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

func (d Definition) clone() Definition {
	out := d
	out.Tags = slices.Clone(d.Tags)
	out.Vars = cloneMap(d.Vars)
	out.Steps = make([]Step, len(d.Steps))
	for i, s := range d.Steps {
		s.Vars = cloneMap(s.Vars)
		out.Steps[i] = s
	}
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
