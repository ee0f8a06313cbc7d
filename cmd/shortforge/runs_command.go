package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shortforge/internal/runlog"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "runs <client-id>",
		Short: "List recorded runs for a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			records, err := runlog.ListRuns(cfg.Paths.DataDir, args[0], limitFlag)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded for client %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				detail := "-"
				if record.Error != nil {
					detail = record.Error.Message
				} else if record.Upload != nil {
					detail = record.Upload.VideoID
				}
				rows = append(rows, []string{
					record.RunID,
					record.Status,
					record.Topic,
					(time.Duration(record.DurationMS) * time.Millisecond).String(),
					detail,
				})
			}
			out := renderTable(
				[]string{"Run", "Status", "Topic", "Duration", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 10, "Maximum number of runs to list")
	return cmd
}
