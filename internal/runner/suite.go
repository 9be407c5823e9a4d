package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
	"github.com/stolostron/capitest/internal/vars"
)

// runSuite moves one suite from pending through running to its outcome.
// Every declared step yields exactly one result, executed or not.
func (r *Runner) runSuite(ctx context.Context, log zerolog.Logger, def suite.Definition, req Request) report.SuiteResult {
	log = log.With().Str("suite", def.ID).Logger()
	if def.ExecutionMode == suite.ModeParallel {
		log.Warn().Msg("Parallel execution mode is reserved; running steps sequentially")
	}
	log.Info().Int("steps", len(def.Steps)).Bool("stop_on_failure", def.StopOnFailure).Msg("Running suite")
	r.progress.SuiteStarted(def)

	res := report.SuiteResult{
		ID:        def.ID,
		Name:      def.Name,
		StartTime: r.opts.Now(),
		Steps:     make([]report.StepResult, 0, len(def.Steps)),
		Outcome:   report.OutcomePassed,
	}

	var (
		abort     bool
		cancelled bool
		executed  bool
		firstAt   time.Time
		lastAt    time.Time
	)
	for _, step := range def.Steps {
		if abort {
			res.Steps = append(res.Steps, r.notExecuted(def.ID, step, report.StepSkipped))
			continue
		}
		if cancelled || ctx.Err() != nil {
			cancelled = true
			res.Steps = append(res.Steps, r.notExecuted(def.ID, step, report.StepCancelled))
			continue
		}

		merged := vars.Merge(step.Vars, def.Vars, req.ExtraVars, req.DryRun)
		r.progress.StepStarted(def.ID, step)
		result := r.opts.Executor.Execute(ctx, step, merged)
		r.progress.StepFinished(def.ID, result)
		res.Steps = append(res.Steps, result)

		if result.Executed() {
			if !executed {
				executed = true
				firstAt = result.StartTime
			}
			lastAt = result.EndTime
		}

		switch result.Status {
		case report.StepPassed:
		case report.StepCancelled:
			cancelled = true
		default:
			if !step.Required {
				log.Warn().Str("step", step.Name).Str("status", string(result.Status)).Msg("Optional step did not pass")
				continue
			}
			res.Outcome = report.OutcomeFailed
			if def.StopOnFailure {
				abort = true
			}
		}
	}

	if cancelled && res.Outcome != report.OutcomeFailed {
		res.Outcome = report.OutcomeCancelled
	}

	// Duration spans the executed steps only.
	res.EndTime = res.StartTime
	if executed {
		res.StartTime = firstAt
		res.EndTime = lastAt
	}
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.DurationSeconds = res.Duration.Seconds()

	log.Info().Str("outcome", string(res.Outcome)).Dur("duration", res.Duration).Msg("Suite finished")
	return res
}

// notExecuted records a step that never ran and tells observers about it.
func (r *Runner) notExecuted(suiteID string, step suite.Step, status report.StepStatus) report.StepResult {
	result := report.StepResult{
		Name:        step.Name,
		Description: step.Description,
		Status:      status,
		Required:    step.Required,
		ExitCode:    report.NoExitCode,
	}
	r.progress.StepFinished(suiteID, result)
	return result
}
