package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// DefaultTailLines is how much captured output a failed step shows.
const DefaultTailLines = 20

// PrettyRenderer renders run results in a human-friendly format.
type PrettyRenderer struct {
	out io.Writer
	// TailLines limits the captured output shown for unsuccessful steps.
	TailLines int
}

// NewPretty creates a PrettyRenderer writing to the provided writer.
func NewPretty(out io.Writer) *PrettyRenderer {
	return &PrettyRenderer{out: out, TailLines: DefaultTailLines}
}

// RenderList renders suites and their steps in list mode. Invalid entries are
// listed with the reason they were rejected.
func (p *PrettyRenderer) RenderList(defs []suite.Definition, invalid []suite.InvalidEntry) error {
	var buffer bytes.Buffer
	for _, def := range defs {
		fmt.Fprintf(&buffer, "Suite %s\n", decorateName(def.ID, def.Name, def.Path))
		if len(def.Tags) > 0 {
			fmt.Fprintf(&buffer, "  tags: %s\n", strings.Join(def.Tags, ", "))
		}
		if def.StopOnFailure {
			fmt.Fprintf(&buffer, "  stop on failure\n")
		}
		for _, step := range def.Steps {
			flags := []string{fmt.Sprintf("timeout %ds", step.TimeoutSeconds)}
			if !step.Required {
				flags = append(flags, "optional")
			}
			fmt.Fprintf(&buffer, "    • %s (%s)\n", step.Name, strings.Join(flags, ", "))
		}
	}
	for _, entry := range invalid {
		fmt.Fprintf(&buffer, "Invalid suite %s (%s)\n", entry.ID, entry.Path)
		fmt.Fprintf(&buffer, "    reason: %s\n", indent(entry.Reason, "    "))
	}
	fmt.Fprintf(&buffer, "%d suites, %d invalid\n", len(defs), len(invalid))
	_, err := buffer.WriteTo(p.out)
	return err
}

// RenderReport shows every suite with its step outcomes, an excerpt of the
// output of unsuccessful steps, a summary table and the final summary line.
func (p *PrettyRenderer) RenderReport(run report.RunReport) error {
	var buffer bytes.Buffer

	for _, res := range run.Suites {
		fmt.Fprintf(&buffer, "%s Suite %s [%s] (%s)\n", outcomeGlyph(res.Outcome), decorateName(res.ID, res.Name, ""), res.Outcome, formatDuration(res.Duration))
		for _, step := range res.Steps {
			p.writeStep(&buffer, step)
		}
	}

	if len(run.Invalid) > 0 {
		fmt.Fprintf(&buffer, "Invalid suites:\n")
		for _, entry := range run.Invalid {
			fmt.Fprintf(&buffer, "  ! %s (%s): %s\n", entry.ID, entry.Path, entry.Reason)
		}
	}
	if len(run.Warnings) > 0 {
		fmt.Fprintf(&buffer, "Warnings:\n")
		for _, w := range run.Warnings {
			fmt.Fprintf(&buffer, "  ! %s\n", w)
		}
	}

	if run.TotalSuites == 0 {
		fmt.Fprintf(&buffer, "0 suites executed\n")
	} else {
		buffer.WriteString(summaryTable(run))
		buffer.WriteString("\n")
	}

	buffer.WriteString(SummaryLine(run))
	buffer.WriteString("\n")
	_, err := buffer.WriteTo(p.out)
	return err
}

func (p *PrettyRenderer) writeStep(buffer *bytes.Buffer, step report.StepResult) {
	label := step.Name
	if !step.Required {
		label += " (optional)"
	}

	switch step.Status {
	case report.StepSkipped, report.StepCancelled:
		fmt.Fprintf(buffer, "    %s %s [%s]\n", statusGlyph(step.Status), label, step.Status)
		return
	case report.StepFailed:
		fmt.Fprintf(buffer, "    %s %s (exit %d, %s)\n", statusGlyph(step.Status), label, step.ExitCode, formatDuration(step.Duration))
	case report.StepTimeout:
		fmt.Fprintf(buffer, "    %s %s (timed out after %s)\n", statusGlyph(step.Status), label, formatDuration(step.Duration))
	default:
		fmt.Fprintf(buffer, "    %s %s (%s)\n", statusGlyph(step.Status), label, formatDuration(step.Duration))
	}

	if step.Status == report.StepPassed {
		return
	}
	if step.Command != "" {
		fmt.Fprintf(buffer, "      command: %s\n", step.Command)
	}
	if step.Error != "" {
		fmt.Fprintf(buffer, "      error: %s\n", step.Error)
	}
	if excerpt := Tail(step.Output, p.TailLines); excerpt != "" {
		fmt.Fprintf(buffer, "      output:\n%s\n", indent(excerpt, "        "))
	}
}

func summaryTable(run report.RunReport) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Suite", "Outcome", "Steps", "Passed", "Failed", "Timeout", "Skipped", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suite", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Steps", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Timeout", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, res := range run.Suites {
		c := res.Counts()
		t.AppendRow(table.Row{res.ID, res.Outcome, len(res.Steps), c.Passed, c.Failed, c.TimedOut, c.Skipped + c.Cancelled, formatDuration(res.Duration)})
	}
	steps := run.Steps
	t.AppendFooter(table.Row{
		"Total",
		fmt.Sprintf("%d/%d passed", run.Passed, run.TotalSuites),
		steps.Passed + steps.Failed + steps.TimedOut + steps.Skipped + steps.Cancelled,
		steps.Passed,
		steps.Failed,
		steps.TimedOut,
		steps.Skipped + steps.Cancelled,
		formatDuration(run.Duration),
	})
	return t.Render()
}

// SummaryLine is the one-line verdict printed at the end of every run.
func SummaryLine(run report.RunReport) string {
	return fmt.Sprintf("SUMMARY: %d passed, %d failed, %d skipped of %d suites; steps: %d passed, %d failed, %d timed out (%s)",
		run.Passed, run.Failed, run.Skipped, run.TotalSuites,
		run.Steps.Passed, run.Steps.Failed, run.Steps.TimedOut,
		formatDuration(run.Duration))
}

// Tail returns the last n lines of captured output with terminal escape
// sequences removed. Elided lines are noted on the first line.
func Tail(output string, n int) string {
	output = strings.TrimRight(stripansi.Strip(output), "\n")
	if strings.TrimSpace(output) == "" {
		return ""
	}
	lines := strings.Split(output, "\n")
	if n <= 0 || len(lines) <= n {
		return output
	}
	omitted := len(lines) - n
	return fmt.Sprintf("... (%d earlier lines omitted)\n%s", omitted, strings.Join(lines[omitted:], "\n"))
}

func decorateName(id, name, path string) string {
	label := id
	if name != "" && name != id {
		label = fmt.Sprintf("%s: %s", id, name)
	}
	if path != "" {
		label = fmt.Sprintf("%s (%s)", label, path)
	}
	return label
}

func statusGlyph(status report.StepStatus) string {
	switch status {
	case report.StepPassed:
		return "✓"
	case report.StepFailed:
		return "✗"
	case report.StepTimeout:
		return "⏱"
	case report.StepSkipped:
		return "-"
	case report.StepCancelled:
		return "⊘"
	default:
		return "?"
	}
}

func outcomeGlyph(outcome report.Outcome) string {
	switch outcome {
	case report.OutcomePassed:
		return "✓"
	case report.OutcomeFailed:
		return "✗"
	case report.OutcomeCancelled:
		return "⊘"
	default:
		return "?"
	}
}

func indent(s, pad string) string {
	s = strings.TrimRight(s, "\n ")
	if strings.TrimSpace(s) == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Truncate(time.Millisecond).String()
}
