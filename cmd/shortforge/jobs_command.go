package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/quota"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limitFlag int
	var clientFlag string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStores(func(cfg *config.Config, jobStore *jobs.Store, _ *quota.Store) error {
				list, err := jobStore.ListRecent(cmd.Context(), limitFlag, clientFlag)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No render jobs recorded")
					return nil
				}

				rows := make([][]string, 0, len(list))
				for _, job := range list {
					detail := job.Error
					if detail == "" {
						detail = "-"
					}
					rows = append(rows, []string{
						job.ID,
						job.ClientID,
						job.Provider,
						string(job.Status),
						job.UpdatedAt.Local().Format(time.RFC3339),
						detail,
					})
				}
				out := renderTable(
					[]string{"Job", "Client", "Provider", "Status", "Updated", "Error"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum number of jobs to list")
	cmd.Flags().StringVar(&clientFlag, "client", "", "Only show jobs for this client")
	return cmd
}
