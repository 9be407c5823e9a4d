package main

import (
	"github.com/spf13/cobra"

	"github.com/stolostron/capitest/internal/config"
	"github.com/stolostron/capitest/internal/output"
	"github.com/stolostron/capitest/internal/selection"
)

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suites and their steps without executing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.list(cmd)
		},
	}
	cmd.Flags().String("tag", "", "only list suites whose tags match (exact, case-insensitive, or /regex/)")
	return cmd
}

func (a *app) list(cmd *cobra.Command) error {
	reg, err := a.loadRegistry()
	if err != nil {
		return err
	}

	defs := reg.All()
	tag, err := cmd.Flags().GetString("tag")
	if err != nil {
		return invocationError(err)
	}
	if tag != "" {
		pattern, err := selection.Compile(tag)
		if err != nil {
			return invocationError(err)
		}
		defs = reg.Filter(pattern.MatchSuite)
	}

	if a.cfg.Format == config.FormatJSON {
		return output.NewJSON(cmd.OutOrStdout()).RenderList(defs, reg.Invalid())
	}
	return output.NewPretty(cmd.OutOrStdout()).RenderList(defs, reg.Invalid())
}
