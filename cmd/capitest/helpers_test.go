package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// fixture lays out a workspace with suites and step scripts and makes it the
// working directory for the test.
func fixture(t *testing.T, suites map[string]string, steps map[string]string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("step fixtures are POSIX shell scripts")
	}
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "suites"))
	mustMkdir(t, filepath.Join(root, "steps"))
	for name, body := range suites {
		if err := os.WriteFile(filepath.Join(root, "suites", name), []byte(body), 0o644); err != nil {
			t.Fatalf("write suite %q: %v", name, err)
		}
	}
	for name, body := range steps {
		script := "#!/bin/sh\n" + body + "\n"
		if err := os.WriteFile(filepath.Join(root, "steps", name), []byte(script), 0o755); err != nil {
			t.Fatalf("write step %q: %v", name, err)
		}
	}
	chdir(t, root)
	return root
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %q: %v", dir, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %q: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

// execute runs the root command and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const (
	smokeSuite = `{
  "name": "Smoke",
  "description": "passing suite",
  "tags": ["smoke", "aws"],
  "steps": [{"name": "ok.sh"}]
}`
	failingSuite = `{
  "name": "Provision",
  "description": "stops after the first failure",
  "stopOnFailure": true,
  "tags": ["provision"],
  "steps": [{"name": "fail.sh"}, {"name": "ok.sh"}]
}`
	varsSuite = `{
  "name": "Vars",
  "description": "echoes its variables",
  "tags": ["vars"],
  "steps": [{"name": "echo_vars.sh", "vars": {"region": "us-west-2"}}]
}`
	brokenSuite = `{"description": "no name", "steps": []}`
)

func defaultSteps() map[string]string {
	return map[string]string{
		"ok.sh":        "echo ok",
		"fail.sh":      "echo boom >&2; exit 1",
		"echo_vars.sh": `echo "region=$VAR_REGION prefix=$VAR_NAME_PREFIX dry_run=$VAR_DRY_RUN"`,
	}
}
