package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/stolostron/capitest/internal/discovery"
	"github.com/stolostron/capitest/internal/report"
	"github.com/stolostron/capitest/internal/suite"
	"github.com/stolostron/capitest/internal/version"
)

// loadRegistry discovers and loads every suite record. An existing but empty
// suites directory yields an empty registry; a missing one is an invocation
// error.
func (a *app) loadRegistry() (*suite.Registry, error) {
	paths, err := discovery.Suites(a.root, a.cfg.SuitesDir, a.cfg.Suites)
	switch {
	case err == nil:
	case errors.Is(err, discovery.ErrNoSuites) && !errors.Is(err, discovery.ErrSuitesDirMissing):
		a.logger.Debug().Str("dir", a.cfg.SuitesDir).Msg("No suite records found")
	default:
		return nil, invocationError(fmt.Errorf("discover suites: %w; set suites_dir or pass --suite", err))
	}

	reg, err := suite.NewLoader(a.root, a.cfg.DefaultTimeout).LoadAll(paths)
	if err != nil {
		return nil, invocationError(fmt.Errorf("load suites: %w", err))
	}
	a.logger.Debug().Int("valid", reg.Len()).Int("invalid", len(reg.Invalid())).Msg("Loaded suite registry")
	return reg, nil
}

func (a *app) resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, path)
}

func invalidSuites(entries []suite.InvalidEntry) []report.InvalidSuite {
	if len(entries) == 0 {
		return nil
	}
	out := make([]report.InvalidSuite, 0, len(entries))
	for _, e := range entries {
		out = append(out, report.InvalidSuite{ID: e.ID, Path: e.Path, Reason: e.Reason})
	}
	return out
}

// launcherWarnings probes the configured launcher once before any step runs.
func (a *app) launcherWarnings(ctx context.Context) []string {
	l := a.cfg.Launcher
	if l.Command == "" {
		return nil
	}

	info, err := version.Detect(ctx, l.Command)
	if err != nil {
		if version.Missing(err) {
			return []string{fmt.Sprintf("launcher %s not found; every step will fail", l.Command)}
		}
		return []string{fmt.Sprintf("unable to detect %s version: %v", l.Command, err)}
	}
	a.logger.Debug().Str("launcher", info.Name).Str("version", info.Version).Msg("Detected launcher")

	if l.Version != "" && a.cfg.Warn.VersionMismatchEnabled() && !version.CompareMajorMinor(l.Version, info.Version) {
		return []string{fmt.Sprintf("%s version mismatch: required %s but found %s", info.Name, l.Version, info.Version)}
	}
	return nil
}
