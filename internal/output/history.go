package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/stolostron/capitest/internal/report"
)

// RunSummary is the per-run row emitted by history listings.
type RunSummary struct {
	RunID           string  `json:"runId"`
	StartTime       string  `json:"startTime"`
	Selector        string  `json:"selector"`
	DryRun          bool    `json:"dryRun"`
	TotalSuites     int     `json:"totalSuites"`
	Passed          int     `json:"passed"`
	Failed          int     `json:"failed"`
	Skipped         int     `json:"skipped"`
	DurationSeconds float64 `json:"durationSeconds"`
	ExitCode        int     `json:"exitCode"`
}

func summarize(run report.RunReport) RunSummary {
	return RunSummary{
		RunID:           run.RunID,
		StartTime:       run.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		Selector:        run.Selector,
		DryRun:          run.DryRun,
		TotalSuites:     run.TotalSuites,
		Passed:          run.Passed,
		Failed:          run.Failed,
		Skipped:         run.Skipped,
		DurationSeconds: run.DurationSeconds,
		ExitCode:        run.ExitCode,
	}
}

// RenderHistory lists past runs as a table. total is the number of runs in
// the store before any limit was applied.
func (p *PrettyRenderer) RenderHistory(runs []report.RunReport, total int) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(p.out, "No runs found")
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Runs (%d of %d)", len(runs), total))
	t.AppendHeader(table.Row{"", "Started", "Run ID", "Selector", "Suites", "Passed", "Failed", "Skipped", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Suites", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})
	for _, run := range runs {
		glyph := "✓"
		if !run.Succeeded() {
			glyph = "✗"
		}
		selector := run.Selector
		if run.DryRun {
			selector += " (dry-run)"
		}
		t.AppendRow(table.Row{
			glyph,
			run.StartTime.Local().Format("2006-01-02 15:04:05"),
			shortRunID(run.RunID),
			selector,
			run.TotalSuites,
			run.Passed,
			run.Failed,
			run.Skipped,
			formatDuration(run.Duration),
		})
	}
	t.Render()
	return nil
}

// RenderHistory encodes past runs as a JSON array of summaries.
func (j *JSONRenderer) RenderHistory(runs []report.RunReport) error {
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, summarize(run))
	}
	return j.encode(out)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
