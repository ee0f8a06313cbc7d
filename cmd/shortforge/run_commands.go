package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/media"
	"shortforge/internal/pipeline"
	"shortforge/internal/quota"
	"shortforge/internal/scheduler"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var topicFlag string
	var privacyFlag string

	cmd := &cobra.Command{
		Use:   "run <client-id>",
		Short: "Produce and publish one short for a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, profiles, err := ctx.loadClients()
			if err != nil {
				return err
			}
			client, ok := clients.ByID(profiles, args[0])
			if !ok {
				return fmt.Errorf("unknown client %q (see `shortforge client list`)", args[0])
			}

			opts := pipeline.RunOptions{TopicOverride: topicFlag}
			if privacyFlag != "" {
				privacy, ok := media.ParsePrivacyStatus(privacyFlag)
				if !ok {
					return fmt.Errorf("invalid privacy status %q (private, unlisted, public)", privacyFlag)
				}
				opts.PrivacyOverride = privacy
			}

			return ctx.withStores(func(cfg *config.Config, jobStore *jobs.Store, quotaStore *quota.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				runner := ctx.newRunner(cfg, jobStore, quotaStore, logger)

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				result, err := runner.RunOnce(runCtx, client, opts)
				if err != nil {
					return err
				}
				printRunResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&topicFlag, "topic", "", "Override the selected topic for this run")
	cmd.Flags().StringVar(&privacyFlag, "privacy", "", "Override the upload privacy status (private, unlisted, public)")
	return cmd
}

func newRunAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run-all",
		Short: "Run every configured client once, sequentially",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, profiles, err := ctx.loadClients()
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients configured")
				return nil
			}

			return ctx.withStores(func(cfg *config.Config, jobStore *jobs.Store, quotaStore *quota.Store) error {
				logger, err := ctx.newLogger(cfg)
				if err != nil {
					return err
				}
				runner := ctx.newRunner(cfg, jobStore, quotaStore, logger)

				sched, err := scheduler.New(cfg, profiles, runner.RunOnce, logger)
				if err != nil {
					return err
				}

				runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				sched.RunAllNow(runCtx)
				fmt.Fprintf(cmd.OutOrStdout(), "Triggered %d client(s); see run records for outcomes\n", len(profiles))
				return nil
			})
		},
	}
}

func printRunResult(cmd *cobra.Command, result pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s %s for client %s\n", result.RunID, result.Status, result.ClientID)
	fmt.Fprintf(out, "  Topic:    %s\n", result.Topic)
	if result.Video != nil {
		fmt.Fprintf(out, "  Video:    %s\n", result.Video.Path)
	}
	if result.Upload != nil {
		fmt.Fprintf(out, "  Upload:   %s (%s)\n", result.Upload.VideoID, result.Upload.URL)
	}
	fmt.Fprintf(out, "  Run log:  %s\n", result.RunLogPath)
}
