package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stolostron/capitest/internal/exitcodes"
	"github.com/stolostron/capitest/internal/report"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func TestRunCommandPassingSuite(t *testing.T) {
	root := fixture(t, map[string]string{"s1.json": smokeSuite}, defaultSteps())

	stdout, _, err := execute(t, "run", "s1")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	for _, want := range []string{"▶ s1: Smoke", "✓ ok.sh", "SUMMARY: 1 passed, 0 failed, 0 skipped of 1 suites"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in %q", want, stdout)
		}
	}

	historyDir := filepath.Join(root, ".capitest", "history")
	for _, name := range []string{"latest.json", "latest.txt"} {
		if !exists(filepath.Join(historyDir, name)) {
			t.Fatalf("expected %s to be written", name)
		}
	}
}

func TestRunCommandStopOnFailure(t *testing.T) {
	fixture(t, map[string]string{
		"s1.json": smokeSuite,
		"s2.json": failingSuite,
	}, defaultSteps())

	stdout, _, err := execute(t, "run", "--all", "--format", "json", "--no-save")
	if err == nil {
		t.Fatalf("expected failure")
	}
	if exitCode(err) != exitcodes.SuiteFailure {
		t.Fatalf("expected exit code 1, got %d", exitCode(err))
	}
	if !errors.Is(err, errSuitesNotPassed) {
		t.Fatalf("unexpected error: %v", err)
	}

	var run report.RunReport
	if err := json.Unmarshal([]byte(stdout), &run); err != nil {
		t.Fatalf("decode report: %v\n%s", err, stdout)
	}
	if run.TotalSuites != 2 || run.Passed != 1 || run.Failed != 1 {
		t.Fatalf("unexpected totals: %+v", run)
	}
	s2 := run.Suites[1]
	if s2.ID != "s2" || s2.Outcome != report.OutcomeFailed {
		t.Fatalf("unexpected suite: %+v", s2)
	}
	if s2.Steps[0].Status != report.StepFailed || s2.Steps[1].Status != report.StepSkipped {
		t.Fatalf("expected [failed, skipped], got %+v", s2.Steps)
	}
	if !strings.Contains(s2.Steps[0].Output, "boom") {
		t.Fatalf("expected captured stderr, got %q", s2.Steps[0].Output)
	}
}

func TestRunCommandExtraVarsAndDryRun(t *testing.T) {
	fixture(t, map[string]string{"vars.json": varsSuite}, defaultSteps())

	stdout, stderr, err := execute(t, "run", "vars", "--format", "json", "--no-save", "--dry-run",
		"-e", "name_prefix=qe6", "-e", "region=us-east-1", "-e", "oops", "-e", "dry_run=false")
	if err != nil {
		t.Fatalf("command execute: %v\n%s", err, stderr)
	}

	var run report.RunReport
	if err := json.Unmarshal([]byte(stdout), &run); err != nil {
		t.Fatalf("decode report: %v\n%s", err, stdout)
	}
	step := run.Suites[0].Steps[0]
	if got := strings.TrimSpace(step.Output); got != "region=us-east-1 prefix=qe6 dry_run=true" {
		t.Fatalf("unexpected step output %q", got)
	}
	if step.Vars["region"] != "us-east-1" || step.Vars["dry_run"] != "true" {
		t.Fatalf("unexpected merged vars: %+v", step.Vars)
	}
	if !run.DryRun {
		t.Fatalf("expected dryRun recorded")
	}
	if len(run.Warnings) != 1 || !strings.Contains(run.Warnings[0], "oops") {
		t.Fatalf("expected malformed variable warning, got %v", run.Warnings)
	}
	if !strings.Contains(stderr, "▶ vars") {
		t.Fatalf("expected progress on stderr, got %q", stderr)
	}
}

func TestRunCommandUnknownID(t *testing.T) {
	root := fixture(t, map[string]string{"s1.json": smokeSuite}, defaultSteps())

	_, _, err := execute(t, "run", "nope")
	if exitCode(err) != exitcodes.InvocationError {
		t.Fatalf("expected exit code 2, got %d (%v)", exitCode(err), err)
	}
	if exists(filepath.Join(root, ".capitest")) {
		t.Fatalf("nothing should be persisted for an invocation error")
	}
}

func TestRunCommandInvalidExplicitID(t *testing.T) {
	fixture(t, map[string]string{
		"s1.json":     smokeSuite,
		"broken.json": brokenSuite,
	}, defaultSteps())

	_, _, err := execute(t, "run", "broken")
	if exitCode(err) != exitcodes.InvocationError {
		t.Fatalf("expected exit code 2, got %d (%v)", exitCode(err), err)
	}
	if !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("expected invalid reason, got %v", err)
	}
}

func TestRunCommandInvalidSuitesDoNotBlockOthers(t *testing.T) {
	fixture(t, map[string]string{
		"s1.json":     smokeSuite,
		"broken.json": brokenSuite,
	}, defaultSteps())

	stdout, _, err := execute(t, "run", "--all", "--no-save")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if !strings.Contains(stdout, "! broken (suites/broken.json)") {
		t.Fatalf("expected invalid suite surfaced, got %q", stdout)
	}
}

func TestRunCommandSelectorMisuse(t *testing.T) {
	fixture(t, map[string]string{"s1.json": smokeSuite}, defaultSteps())

	for _, args := range [][]string{
		{"run"},
		{"run", "s1", "--all"},
		{"run", "--tag", "smoke", "--all"},
	} {
		_, _, err := execute(t, args...)
		if exitCode(err) != exitcodes.InvocationError {
			t.Fatalf("%v: expected exit code 2, got %d (%v)", args, exitCode(err), err)
		}
	}
}

func TestRunCommandTagWithoutMatches(t *testing.T) {
	fixture(t, map[string]string{"s1.json": smokeSuite}, defaultSteps())

	stdout, _, err := execute(t, "run", "--tag", "nothing-has-this", "--no-save")
	if err != nil {
		t.Fatalf("expected vacuous success, got %v", err)
	}
	if !strings.Contains(stdout, "0 suites executed") {
		t.Fatalf("expected empty-run notice, got %q", stdout)
	}
}

func TestRunCommandFormatNone(t *testing.T) {
	root := fixture(t, map[string]string{"s1.json": smokeSuite}, defaultSteps())

	stdout, _, err := execute(t, "run", "s1", "--format", "none")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	if strings.TrimSpace(stdout) == "" || !strings.HasPrefix(stdout, "SUMMARY:") {
		t.Fatalf("expected summary line only, got %q", stdout)
	}
	if exists(filepath.Join(root, ".capitest")) {
		t.Fatalf("format none must not persist artifacts")
	}
}

func TestRunCommandMetricsFile(t *testing.T) {
	root := fixture(t, map[string]string{"s1.json": smokeSuite}, defaultSteps())

	_, _, err := execute(t, "run", "s1", "--no-save", "--metrics-file", "capitest.prom")
	if err != nil {
		t.Fatalf("command execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "capitest.prom"))
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), `capitest_suite_results_total{outcome="passed",suite="s1"} 1`) {
		t.Fatalf("unexpected metrics:\n%s", data)
	}
}

func TestRunCommandMetricsCountSkippedSteps(t *testing.T) {
	root := fixture(t, map[string]string{"s2.json": failingSuite}, defaultSteps())

	_, _, err := execute(t, "run", "s2", "--no-save", "--metrics-file", "capitest.prom")
	if exitCode(err) != exitcodes.SuiteFailure {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "capitest.prom"))
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	for _, want := range []string{
		`capitest_step_results_total{status="failed",suite="s2"} 1`,
		`capitest_step_results_total{status="skipped",suite="s2"} 1`,
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("expected %s in metrics:\n%s", want, data)
		}
	}
}

func TestRunThenHistory(t *testing.T) {
	fixture(t, map[string]string{
		"s1.json": smokeSuite,
		"s2.json": failingSuite,
	}, defaultSteps())

	if _, _, err := execute(t, "run", "s1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, _, err := execute(t, "run", "s2"); exitCode(err) != exitcodes.SuiteFailure {
		t.Fatalf("second run: expected exit code 1, got %v", err)
	}

	stdout, _, err := execute(t, "history", "--format", "json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []struct {
		Selector string `json:"selector"`
		ExitCode int    `json:"exitCode"`
	}
	if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
		t.Fatalf("decode history: %v\n%s", err, stdout)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Selector != "id:s2" || runs[0].ExitCode != 1 {
		t.Fatalf("expected newest run first, got %+v", runs)
	}

	stdout, _, err = execute(t, "history", "-n", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "Runs (1 of 2)") {
		t.Fatalf("expected limited table, got %q", stdout)
	}
}

func TestExitCodeMapping(t *testing.T) {
	if exitCode(nil) != exitcodes.Success {
		t.Fatalf("nil error must map to success")
	}
	if exitCode(errors.New("unknown flag")) != exitcodes.InvocationError {
		t.Fatalf("plain errors must map to invocation error")
	}
	wrapped := &exitError{code: exitcodes.SuiteFailure, err: errSuitesNotPassed}
	if exitCode(wrapped) != exitcodes.SuiteFailure {
		t.Fatalf("exitError code not honoured")
	}
}
