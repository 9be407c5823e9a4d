package main

import (
	"github.com/spf13/cobra"

	"github.com/stolostron/capitest/internal/config"
	"github.com/stolostron/capitest/internal/history"
	"github.com/stolostron/capitest/internal/output"
	"github.com/stolostron/capitest/internal/report"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List persisted runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.history(cmd)
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "maximum number of runs to show (0 for all)")
	return cmd
}

func (a *app) history(cmd *cobra.Command) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return invocationError(err)
	}

	store := history.NewStore(a.resolvePath(a.cfg.HistoryDir), a.cfg.TailLines, a.logger)
	entries, err := store.List()
	if err != nil {
		return invocationError(err)
	}
	total := len(entries)
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	runs := make([]report.RunReport, 0, len(entries))
	for _, e := range entries {
		runs = append(runs, e.Report)
	}

	if a.cfg.Format == config.FormatJSON {
		return output.NewJSON(cmd.OutOrStdout()).RenderHistory(runs)
	}
	return output.NewPretty(cmd.OutOrStdout()).RenderHistory(runs, total)
}
