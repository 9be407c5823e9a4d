package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
	"github.com/stolostron/capitest/internal/vars"
)

const (
	// DefaultVarEnvPrefix prefixes every variable exported to the step environment.
	DefaultVarEnvPrefix = "VAR_"
	// DefaultWaitDelay bounds how long output pipes are drained after a kill.
	DefaultWaitDelay = 5 * time.Second

	exitCodeNotRunnable = 127
)

// Launcher wraps every step in a fixed program, e.g. ansible-playbook, and
// optionally renders variables as repeated flag pairs.
type Launcher struct {
	Command   string
	Args      []string
	VarFlag   string
	Extension string
}

// Options configure how the ProcessRunner spawns steps.
type Options struct {
	Root         string
	StepsDir     string
	Launcher     Launcher
	Env          []string
	VarEnvPrefix string
	Verbose      bool
	Stdout       io.Writer
	WaitDelay    time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time
}

// ProcessRunner is the production StepRunner.
type ProcessRunner struct {
	opts Options
}

var _ StepRunner = (*ProcessRunner)(nil)

// NewProcessRunner creates a runner with the supplied options.
func NewProcessRunner(opts Options) *ProcessRunner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.VarEnvPrefix == "" {
		opts.VarEnvPrefix = DefaultVarEnvPrefix
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ProcessRunner{opts: opts}
}

// Execute spawns the step and races its exit against the step deadline. On
// expiry the whole process group is killed.
func (p *ProcessRunner) Execute(ctx context.Context, step suite.Step, stepVars map[string]string) report.StepResult {
	result := report.StepResult{
		Name:        step.Name,
		Description: step.Description,
		Required:    step.Required,
		ExitCode:    report.NoExitCode,
		Vars:        stepVars,
		StartTime:   p.opts.Now(),
	}

	argv, err := p.command(step, stepVars)
	if err != nil {
		result.Status = report.StepFailed
		result.ExitCode = exitCodeNotRunnable
		result.Error = err.Error()
		result.Finish(p.opts.Now())
		return result
	}
	result.Command = shellescape.QuoteCommand(argv)

	payload, err := json.Marshal(stepVars)
	if err != nil {
		result.Status = report.StepFailed
		result.Error = fmt.Sprintf("encode step variables: %v", err)
		result.Finish(p.opts.Now())
		return result
	}

	stepCtx, cancel := context.WithTimeout(ctx, step.Timeout())
	defer cancel()

	cmd := exec.CommandContext(stepCtx, argv[0], argv[1:]...)
	cmd.Dir = p.opts.Root
	cmd.Env = append(append([]string{}, p.opts.Env...), vars.Environ(p.opts.VarEnvPrefix, stepVars)...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.WaitDelay = p.opts.WaitDelay
	configureProcessGroup(cmd)

	// A single writer for both streams keeps the combined output ordered.
	var output bytes.Buffer
	var sink io.Writer = &output
	if p.opts.Verbose {
		sink = io.MultiWriter(&output, p.opts.Stdout)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	p.opts.Logger.Debug().
		Str("step", step.Name).
		Str("command", result.Command).
		Dur("timeout", step.Timeout()).
		Msg("Starting step")

	runErr := cmd.Run()
	result.Finish(p.opts.Now())
	result.Output = output.String()

	switch {
	case runErr == nil:
		result.Status = report.StepPassed
		result.Success = true
		result.ExitCode = 0
	case ctx.Err() != nil:
		result.Status = report.StepCancelled
		result.Error = fmt.Sprintf("run cancelled: %v", ctx.Err())
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		result.Status = report.StepTimeout
		result.TimedOut = true
		result.Error = fmt.Sprintf("%v after %s", ErrStepTimeout, step.Timeout())
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitCode(exitErr)
			result.Error = (&StepExecutionError{ExitCode: result.ExitCode}).Error()
		} else {
			result.ExitCode = exitCodeNotRunnable
			result.Error = runErr.Error()
		}
		result.Status = report.StepFailed
	}

	p.opts.Logger.Debug().
		Str("step", step.Name).
		Str("status", string(result.Status)).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Msg("Step finished")

	return result
}

func (p *ProcessRunner) command(step suite.Step, stepVars map[string]string) ([]string, error) {
	target, err := p.resolveStep(step.Name)
	if err != nil {
		return nil, err
	}

	l := p.opts.Launcher
	if l.Command == "" {
		return []string{target}, nil
	}

	argv := append([]string{l.Command}, l.Args...)
	argv = append(argv, target)
	if l.VarFlag != "" {
		for _, k := range vars.SortedKeys(stepVars) {
			argv = append(argv, l.VarFlag, k+"="+stepVars[k])
		}
	}
	return argv, nil
}

// resolveStep maps a step name to a file in the steps directory, falling
// back to $PATH when no launcher is configured.
func (p *ProcessRunner) resolveStep(name string) (string, error) {
	dir := p.opts.StepsDir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(p.opts.Root, dir)
	}

	ext := p.opts.Launcher.Extension
	candidates := []string{filepath.Join(dir, name)}
	if ext != "" && !strings.HasSuffix(name, ext) {
		candidates = append([]string{filepath.Join(dir, name+ext)}, candidates...)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if p.opts.Launcher.Command != "" {
		return candidates[0], nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("step %q not found in %s or PATH: %w", name, dir, err)
	}
	return path, nil
}

func exitCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(interface{ ExitStatus() int }); ok {
		return status.ExitStatus()
	}
	return exitErr.ExitCode()
}
