package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stolostron/capitest/internal/config"
)

// app holds state shared by every subcommand once flags are parsed.
type app struct {
	cfg    config.Config
	root   string
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "capitest",
		Short:         "Capitest runs cluster provisioning test suites",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.String("suites-dir", "suites", "directory containing suite records")
	persistent.StringArray("suite", nil, "suite record file to load instead of the suites directory (repeatable)")
	persistent.String("steps-dir", "steps", "directory containing step executables")
	persistent.String("history-dir", ".capitest/history", "directory for persisted run reports")
	persistent.Int("default-timeout", 120, "timeout in seconds for steps that declare none")
	persistent.String("format", "both", "output format (pretty|json|both|none)")
	persistent.String("log-level", "info", "log level (debug|info|warn|error)")
	persistent.BoolP("verbose", "v", false, "stream step output and enable debug logging")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newHistoryCmd(a))

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return invocationError(err)
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return invocationError(err)
	}
	a.cfg, a.root, a.logger = cfg, root, logger
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	return cfg, root, cfg.Validate()
}

func newLogger(cmd *cobra.Command, cfg config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", cfg.LogLevel, err)
	}
	if cfg.Verbose && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        cmd.ErrOrStderr(),
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger(), nil
}
