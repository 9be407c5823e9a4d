package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stolostron/capitest/internal/config"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	for name, target := range map[string]*config.StringFlag{
		"suites-dir":   &values.SuitesDir,
		"steps-dir":    &values.StepsDir,
		"history-dir":  &values.HistoryDir,
		"format":       &values.Format,
		"metrics-file": &values.MetricsFile,
		"log-level":    &values.LogLevel,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*target = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("suite") {
		v, err := flags.GetStringArray("suite")
		if err != nil {
			return values, fmt.Errorf("parse --suite: %w", err)
		}
		values.Suites = config.SliceFlag{Values: append([]string{}, v...)}
	}

	if flags.Changed("default-timeout") {
		v, err := flags.GetInt("default-timeout")
		if err != nil {
			return values, fmt.Errorf("parse --default-timeout: %w", err)
		}
		values.DefaultTimeout = config.IntFlag{Value: v, Set: true}
	}

	for name, target := range map[string]*config.BoolFlag{
		"dry-run": &values.DryRun,
		"verbose": &values.Verbose,
		"no-save": &values.NoSave,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetBool(name)
		if err != nil {
			return values, fmt.Errorf("parse --%s: %w", name, err)
		}
		*target = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
