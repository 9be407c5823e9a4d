// Package version probes the step launcher before a run so a missing or
// mismatched tool is reported once instead of failing every step.
package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Info captures a tool version installed on the system.
type Info struct {
	Name    string
	Version string
	Raw     string
}

// probeTimeout bounds a single --version invocation.
const probeTimeout = 10 * time.Second

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// Detect runs `<command> --version` and extracts the first version number
// from its output. Tools like ansible-playbook print it inside a banner
// ("ansible-playbook [core 2.16.3]").
func Detect(ctx context.Context, command string) (Info, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := runCommand(ctx, command, "--version")
	if err != nil {
		return Info{}, err
	}
	v, err := Parse(out)
	if err != nil {
		return Info{}, fmt.Errorf("%s: %w", command, err)
	}
	return Info{Name: filepath.Base(command), Version: v, Raw: firstLine(out)}, nil
}

// Parse extracts the first semver-like token from version output.
func Parse(out string) (string, error) {
	match := versionRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return "", fmt.Errorf("unable to parse version from %q", firstLine(out))
	}
	return match[1], nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// CompareMajorMinor compares major.minor portions of two semver-like
// versions. An empty desired version matches anything.
func CompareMajorMinor(desired, actual string) bool {
	if desired == "" {
		return true
	}
	d := semverPrefix(desired)
	a := semverPrefix(actual)
	if d == "" || a == "" {
		return false
	}
	return strings.EqualFold(d, a)
}

func semverPrefix(version string) string {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returns a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
