package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/stolostron/capitest/internal/suite"
)

// FileName is the optional per-repository configuration file.
const FileName = ".capitest.yml"

// Config captures CLI options sourced from config files or flags.
type Config struct {
	SuitesDir  string   `yaml:"suites_dir"`
	Suites     []string `yaml:"suites"`
	StepsDir   string   `yaml:"steps_dir"`
	HistoryDir string   `yaml:"history_dir"`

	DefaultTimeout int `yaml:"default_timeout"`
	TailLines      int `yaml:"tail_lines"`

	DryRun      bool   `yaml:"dry_run"`
	Verbose     bool   `yaml:"verbose"`
	NoSave      bool   `yaml:"no_save"`
	Format      string `yaml:"format"`
	LogLevel    string `yaml:"log_level"`
	MetricsFile string `yaml:"metrics_file"`

	// Vars are extra variables applied to every run below -e flags.
	Vars map[string]string `yaml:"vars"`

	Launcher LauncherConfig `yaml:"launcher"`
	Warn     WarnConfig     `yaml:"warn"`
}

// LauncherConfig wraps every step in a fixed program such as ansible-playbook.
type LauncherConfig struct {
	Command   string   `yaml:"command"`
	Args      []string `yaml:"args"`
	VarFlag   string   `yaml:"var_flag"`
	Extension string   `yaml:"extension"`
	// Version is the expected major.minor of the launcher.
	Version string `yaml:"version"`
}

// WarnConfig controls additional warning behaviour.
type WarnConfig struct {
	// VersionMismatch is nil unless the file sets it; nil means enabled.
	VersionMismatch *bool `yaml:"version_mismatch"`
}

// VersionMismatchEnabled reports whether launcher version drift is warned about.
func (w WarnConfig) VersionMismatchEnabled() bool {
	return w.VersionMismatch == nil || *w.VersionMismatch
}

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		SuitesDir:      "suites",
		StepsDir:       "steps",
		HistoryDir:     filepath.Join(".capitest", "history"),
		DefaultTimeout: 120,
		TailLines:      20,
		Format:         FormatBoth,
		LogLevel:       "info",
	}
}

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
	// FormatBoth prints the human report and persists both artifacts.
	FormatBoth = "both"
	// FormatNone prints only the summary line and persists nothing.
	FormatNone = "none"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatPretty, FormatJSON, FormatBoth, FormatNone}

// Load reads .capitest.yml from the repository root when present. Missing files are ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, cfg.Validate()
}

// Validate rejects values no command can work with.
func (c Config) Validate() error {
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("unknown format %q (want one of %v)", c.Format, Formats)
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("default_timeout must be positive, got %d", c.DefaultTimeout)
	}
	if c.DefaultTimeout > suite.MaxTimeoutSeconds {
		return fmt.Errorf("default_timeout must not exceed %d, got %d", suite.MaxTimeoutSeconds, c.DefaultTimeout)
	}
	if c.Launcher.VarFlag != "" && c.Launcher.Command == "" {
		return errors.New("launcher.var_flag requires launcher.command")
	}
	return nil
}

func merge(base, override Config) Config {
	out := base

	if override.SuitesDir != "" {
		out.SuitesDir = override.SuitesDir
	}
	if len(override.Suites) > 0 {
		out.Suites = append([]string{}, override.Suites...)
	}
	if override.StepsDir != "" {
		out.StepsDir = override.StepsDir
	}
	if override.HistoryDir != "" {
		out.HistoryDir = override.HistoryDir
	}
	if override.DefaultTimeout != 0 {
		out.DefaultTimeout = override.DefaultTimeout
	}
	if override.TailLines != 0 {
		out.TailLines = override.TailLines
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.LogLevel != "" {
		out.LogLevel = override.LogLevel
	}
	if override.MetricsFile != "" {
		out.MetricsFile = override.MetricsFile
	}
	if len(override.Vars) > 0 {
		out.Vars = make(map[string]string, len(override.Vars))
		for k, v := range override.Vars {
			out.Vars[k] = v
		}
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.NoSave {
		out.NoSave = true
	}
	if override.Launcher.Command != "" {
		out.Launcher.Command = override.Launcher.Command
	}
	if len(override.Launcher.Args) > 0 {
		out.Launcher.Args = append([]string{}, override.Launcher.Args...)
	}
	if override.Launcher.VarFlag != "" {
		out.Launcher.VarFlag = override.Launcher.VarFlag
	}
	if override.Launcher.Extension != "" {
		out.Launcher.Extension = override.Launcher.Extension
	}
	if override.Launcher.Version != "" {
		out.Launcher.Version = override.Launcher.Version
	}

	if override.Warn.VersionMismatch != nil {
		enabled := *override.Warn.VersionMismatch
		out.Warn.VersionMismatch = &enabled
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.SuitesDir.Set {
		cfg.SuitesDir = flags.SuitesDir.Value
	}
	if len(flags.Suites.Values) > 0 {
		cfg.Suites = append([]string{}, flags.Suites.Values...)
	}
	if flags.StepsDir.Set {
		cfg.StepsDir = flags.StepsDir.Value
	}
	if flags.HistoryDir.Set {
		cfg.HistoryDir = flags.HistoryDir.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.MetricsFile.Set {
		cfg.MetricsFile = flags.MetricsFile.Value
	}
	if flags.LogLevel.Set {
		cfg.LogLevel = flags.LogLevel.Value
	}
	if flags.DefaultTimeout.Set {
		cfg.DefaultTimeout = flags.DefaultTimeout.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.NoSave.Set {
		cfg.NoSave = flags.NoSave.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	SuitesDir      StringFlag
	Suites         SliceFlag
	StepsDir       StringFlag
	HistoryDir     StringFlag
	Format         StringFlag
	MetricsFile    StringFlag
	LogLevel       StringFlag
	DefaultTimeout IntFlag
	DryRun         BoolFlag
	Verbose        BoolFlag
	NoSave         BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}
