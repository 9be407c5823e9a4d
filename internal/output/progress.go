package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// ProgressRenderer streams one line per step as a run advances.
type ProgressRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewProgress creates a ProgressRenderer writing to out.
func NewProgress(out io.Writer) *ProgressRenderer {
	return &ProgressRenderer{out: out}
}

// SuiteStarted prints the suite header.
func (p *ProgressRenderer) SuiteStarted(def suite.Definition) {
	p.printf("▶ %s (%d steps)\n", decorateName(def.ID, def.Name, ""), len(def.Steps))
}

// StepStarted prints a running marker.
func (p *ProgressRenderer) StepStarted(_ string, step suite.Step) {
	p.printf("    … %s\n", step.Name)
}

// StepFinished prints the step's status.
func (p *ProgressRenderer) StepFinished(_ string, result report.StepResult) {
	switch result.Status {
	case report.StepFailed:
		p.printf("    %s %s (exit %d, %s)\n", statusGlyph(result.Status), result.Name, result.ExitCode, formatDuration(result.Duration))
	case report.StepTimeout:
		p.printf("    %s %s (timed out after %s)\n", statusGlyph(result.Status), result.Name, formatDuration(result.Duration))
	default:
		p.printf("    %s %s (%s)\n", statusGlyph(result.Status), result.Name, formatDuration(result.Duration))
	}
}

// SuiteFinished prints the suite outcome, including suites that never
// started because the run was cancelled.
func (p *ProgressRenderer) SuiteFinished(result report.SuiteResult) {
	p.printf("%s %s %s (%s)\n", outcomeGlyph(result.Outcome), result.ID, result.Outcome, formatDuration(result.Duration))
}

func (p *ProgressRenderer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}
