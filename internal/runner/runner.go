// Package runner drives suites through their steps and folds the results
// into a single run report.
package runner

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stolostron/capitest/internal/executor"
	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
)

// Options configure how the runner executes suites.
type Options struct {
	Executor executor.StepRunner
	Progress []Progress
	Logger   zerolog.Logger
	Now      func() time.Time
	NewRunID func() string
}

// Request describes one invocation.
type Request struct {
	Selector  string
	ExtraVars map[string]string
	DryRun    bool
	// Invalid and Warnings are carried into the report untouched.
	Invalid  []report.InvalidSuite
	Warnings []string
}

// Runner executes suites sequentially.
type Runner struct {
	opts     Options
	progress progressGroup
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Runner{opts: opts, progress: progressGroup(opts.Progress)}
}

// Run executes every suite in id order and returns the aggregated report.
// A suite's stopOnFailure only affects its own steps; siblings always run.
// Once ctx is cancelled, suites that have not started are recorded as
// cancelled without executing anything.
func (r *Runner) Run(ctx context.Context, suites []suite.Definition, req Request) report.RunReport {
	ordered := append([]suite.Definition{}, suites...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	run := report.RunReport{
		RunID:     r.opts.NewRunID(),
		StartTime: r.opts.Now(),
		Selector:  req.Selector,
		DryRun:    req.DryRun,
		Suites:    make([]report.SuiteResult, 0, len(ordered)),
		Invalid:   req.Invalid,
		Warnings:  req.Warnings,
	}

	log := r.opts.Logger.With().Str("run_id", run.RunID).Logger()
	log.Info().Int("suites", len(ordered)).Str("selector", req.Selector).Bool("dry_run", req.DryRun).Msg("Starting run")

	for _, def := range ordered {
		var res report.SuiteResult
		if ctx.Err() != nil {
			res = r.cancelledSuite(def)
		} else {
			res = r.runSuite(ctx, log, def, req)
		}
		run.Suites = append(run.Suites, res)
		r.progress.SuiteFinished(res)
	}

	run.Finalize(r.opts.Now())
	log.Info().
		Int("passed", run.Passed).
		Int("failed", run.Failed).
		Int("skipped", run.Skipped).
		Int("exit_code", run.ExitCode).
		Msg("Run finished")
	return run
}

func (r *Runner) cancelledSuite(def suite.Definition) report.SuiteResult {
	now := r.opts.Now()
	res := report.SuiteResult{
		ID:        def.ID,
		Name:      def.Name,
		StartTime: now,
		EndTime:   now,
		Steps:     make([]report.StepResult, 0, len(def.Steps)),
		Outcome:   report.OutcomeCancelled,
	}
	for _, step := range def.Steps {
		res.Steps = append(res.Steps, r.notExecuted(def.ID, step, report.StepCancelled))
	}
	return res
}
