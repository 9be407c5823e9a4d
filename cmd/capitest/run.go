package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stolostron/capitest/internal/config"
	"github.com/stolostron/capitest/internal/executor"
	"github.com/stolostron/capitest/internal/exitcodes"
	"github.com/stolostron/capitest/internal/history"
	"github.com/stolostron/capitest/internal/metrics"
	"github.com/stolostron/capitest/internal/output"
	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/runner"
	"github.com/stolostron/capitest/internal/selection"
	"github.com/stolostron/capitest/internal/vars"
)

var errSuitesNotPassed = errors.New("one or more suites did not pass")

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [SUITE_ID]",
		Short: "Execute one suite by id, suites matching a tag, or all suites",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.String("tag", "", "run suites whose tags match (exact, case-insensitive, or /regex/)")
	flags.Bool("all", false, "run every valid suite")
	flags.StringArrayP("extra-var", "e", nil, "extra variable key=value applied to every step (repeatable)")
	flags.Bool("dry-run", false, "inject dry_run=true into every step's variables")
	flags.Bool("no-save", false, "do not persist reports to the history directory")
	flags.String("metrics-file", "", "write Prometheus metrics to this textfile after the run")

	return cmd
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	tag, _ := flags.GetString("tag")
	all, _ := flags.GetBool("all")
	tokens, _ := flags.GetStringArray("extra-var")

	var id string
	if len(args) > 0 {
		id = args[0]
	}
	sel, err := selection.Parse(id, tag, all)
	if err != nil {
		return invocationError(err)
	}

	extraVars, warnings := a.extraVars(tokens)

	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}
	suites, err := selection.Resolve(reg, sel)
	if err != nil {
		return invocationError(err)
	}
	for _, entry := range reg.Invalid() {
		a.logger.Warn().Str("suite", entry.ID).Str("path", entry.Path).Str("reason", entry.Reason).Msg("Skipping invalid suite")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, w := range a.launcherWarnings(ctx) {
		a.logger.Warn().Msg(w)
		warnings = append(warnings, w)
	}

	// Machine-readable output owns stdout, so progress moves to stderr.
	stdout := cmd.OutOrStdout()
	progressOut := stdout
	switch a.cfg.Format {
	case config.FormatJSON:
		progressOut = cmd.ErrOrStderr()
	case config.FormatNone:
		progressOut = io.Discard
	}

	var observers []runner.Progress
	if a.cfg.Format != config.FormatNone {
		observers = append(observers, output.NewProgress(progressOut))
	}
	var recorder *metrics.Recorder
	if a.cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		observers = append(observers, recorder)
	}

	steps := executor.NewProcessRunner(executor.Options{
		Root:     a.root,
		StepsDir: a.cfg.StepsDir,
		Launcher: executor.Launcher{
			Command:   a.cfg.Launcher.Command,
			Args:      a.cfg.Launcher.Args,
			VarFlag:   a.cfg.Launcher.VarFlag,
			Extension: a.cfg.Launcher.Extension,
		},
		Verbose: a.cfg.Verbose,
		Stdout:  progressOut,
		Logger:  a.logger,
	})

	run := runner.New(runner.Options{
		Executor: steps,
		Progress: observers,
		Logger:   a.logger,
	}).Run(ctx, suites, runner.Request{
		Selector:  sel.String(),
		ExtraVars: extraVars,
		DryRun:    a.cfg.DryRun,
		Invalid:   invalidSuites(reg.Invalid()),
		Warnings:  warnings,
	})
	if ctx.Err() != nil {
		a.logger.Warn().Msg("Run cancelled by signal")
	}

	if err := a.render(stdout, run); err != nil {
		return err
	}
	a.persist(run)
	if recorder != nil {
		recorder.ObserveRun(run)
		if err := recorder.WriteTextfile(a.resolvePath(a.cfg.MetricsFile)); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to write metrics")
		}
	}

	if run.ExitCode != exitcodes.Success {
		return &exitError{code: run.ExitCode, err: errSuitesNotPassed}
	}
	return nil
}

// extraVars layers -e tokens over the config file's vars.
func (a *app) extraVars(tokens []string) (map[string]string, []string) {
	parsed, malformed := vars.ParsePairs(tokens)

	var warnings []string
	for _, w := range malformed {
		a.logger.Warn().Str("token", w.Token).Str("reason", w.Reason).Msg("Skipping malformed variable")
		warnings = append(warnings, w.Error())
	}

	merged := make(map[string]string, len(a.cfg.Vars)+len(parsed))
	for k, v := range a.cfg.Vars {
		merged[k] = v
	}
	for k, v := range parsed {
		merged[k] = v
	}
	return merged, warnings
}

func (a *app) render(w io.Writer, run report.RunReport) error {
	switch a.cfg.Format {
	case config.FormatJSON:
		return output.NewJSON(w).Render(run)
	case config.FormatNone:
		_, err := fmt.Fprintln(w, output.SummaryLine(run))
		return err
	default:
		pretty := output.NewPretty(w)
		pretty.TailLines = a.cfg.TailLines
		return pretty.RenderReport(run)
	}
}

// persist stores the run artifacts. Failures are logged and never change the
// run's exit code.
func (a *app) persist(run report.RunReport) {
	if a.cfg.NoSave {
		return
	}
	var formats []string
	switch a.cfg.Format {
	case config.FormatPretty:
		formats = []string{history.FormatText}
	case config.FormatJSON:
		formats = []string{history.FormatJSON}
	case config.FormatBoth:
		formats = []string{history.FormatJSON, history.FormatText}
	default:
		return
	}

	store := history.NewStore(a.resolvePath(a.cfg.HistoryDir), a.cfg.TailLines, a.logger)
	paths, err := store.Save(run, formats)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to persist run report")
	}
	for _, p := range paths {
		a.logger.Info().Str("path", p).Msg("Saved run report")
	}
}
