package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/easyhttp/packages/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(global *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed requests",
		Long: `Show requests recorded in the history database.

Requests are only recorded when a history file is configured with --history,
EASYHTTP_HISTORY or the "history" config key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.History == "" {
				return usageError(errors.New("no history file configured (use --history or EASYHTTP_HISTORY)"))
			}

			formatter, err := global.formatter(cmd, cfg, false)
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.History)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}
			formatter.FormatHistory(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	return cmd
}
