package output

import (
	"time"

	"github.com/stolostron/capitest/internal/report"
)

func sampleReport() report.RunReport {
	start := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	run := report.RunReport{
		RunID:     "0b7c6a9e-1111-2222-3333-444455556666",
		StartTime: start,
		Selector:  "all",
		Suites: []report.SuiteResult{
			{
				ID:       "s1",
				Name:     "Smoke",
				Duration: 1500 * time.Millisecond,
				Outcome:  report.OutcomePassed,
				Steps: []report.StepResult{
					{Name: "check", Status: report.StepPassed, Required: true, Success: true, Duration: 1500 * time.Millisecond},
				},
			},
			{
				ID:      "s2",
				Name:    "Provision",
				Outcome: report.OutcomeFailed,
				Steps: []report.StepResult{
					{Name: "create_cluster", Status: report.StepFailed, Required: true, ExitCode: 1, Command: "steps/create_cluster", Output: "\x1b[31mboom\x1b[0m\n"},
					{Name: "wait", Status: report.StepTimeout, Required: false, TimedOut: true, ExitCode: report.NoExitCode, Duration: time.Second},
					{Name: "verify", Status: report.StepSkipped, Required: true, ExitCode: report.NoExitCode},
				},
			},
		},
		Invalid: []report.InvalidSuite{{ID: "broken", Path: "suites/broken.json", Reason: "missing property 'name'"}},
	}
	run.Finalize(start.Add(3 * time.Second))
	return run
}
