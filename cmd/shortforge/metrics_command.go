package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shortforge/internal/runlog"
)

func newMetricsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var clientFlag string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show recent run metrics, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Read without a limit when filtering so the client filter is
			// applied before the cap.
			readLimit := limitFlag
			if clientFlag != "" {
				readLimit = 0
			}
			events, err := runlog.ReadMetrics(cfg.Paths.DataDir, readLimit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(events))
			for _, event := range events {
				if clientFlag != "" && event.ClientID != clientFlag {
					continue
				}
				if limitFlag > 0 && len(rows) >= limitFlag {
					break
				}
				runID := event.RunID
				if runID == "" {
					runID = "-"
				}
				rows = append(rows, []string{
					event.Timestamp.Local().Format(time.RFC3339),
					event.Event,
					event.ClientID,
					runID,
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No metrics recorded")
				return nil
			}

			out := renderTable(
				[]string{"Timestamp", "Event", "Client", "Run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of events to show")
	cmd.Flags().StringVar(&clientFlag, "client", "", "Only show events for this client")
	return cmd
}
