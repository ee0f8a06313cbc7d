package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shortforge/internal/clients"
	"shortforge/internal/media"
)

func newClientCommand(ctx *commandContext) *cobra.Command {
	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Manage client profiles",
	}

	clientCmd.AddCommand(newClientListCommand(ctx))
	clientCmd.AddCommand(newClientAddCommand(ctx))
	clientCmd.AddCommand(newClientShowCommand(ctx))

	return clientCmd
}

func newClientListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, profiles, err := ctx.loadClients()
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clients configured (use `shortforge client add`)")
				return nil
			}

			rows := make([][]string, 0, len(profiles))
			for _, client := range profiles {
				schedule := client.Schedule.RunDailyAt
				if schedule == "" {
					schedule = "-"
				}
				rows = append(rows, []string{
					client.ID,
					client.DisplayName,
					client.Niche,
					string(client.TopicSelectionMode),
					schedule,
					fmt.Sprintf("%d", len(client.TopicBank)),
				})
			}
			out := renderTable(
				[]string{"ID", "Name", "Niche", "Mode", "Schedule", "Topics"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newClientShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <client-id>",
		Short: "Show one client profile in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, profiles, err := ctx.loadClients()
			if err != nil {
				return err
			}
			client, ok := clients.ByID(profiles, args[0])
			if !ok {
				return fmt.Errorf("unknown client %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:              %s\n", client.ID)
			fmt.Fprintf(out, "Name:            %s\n", client.DisplayName)
			fmt.Fprintf(out, "Niche:           %s\n", client.Niche)
			fmt.Fprintf(out, "Language:        %s\n", client.Language)
			fmt.Fprintf(out, "Tone:            %s\n", client.Tone)
			fmt.Fprintf(out, "Topic mode:      %s (%d topics)\n", client.TopicSelectionMode, len(client.TopicBank))
			fmt.Fprintf(out, "Schedule:        %s (%s, max %d/day)\n",
				client.Schedule.RunDailyAt, client.TimezoneOr("UTC"), client.Schedule.MaxPerDay)
			fmt.Fprintf(out, "Upload cap:      %d/day\n", client.MaxUploadsPerDay)
			fmt.Fprintf(out, "Voice:           %s (%s)\n", client.Voice.Provider, client.Voice.VoiceID)
			fmt.Fprintf(out, "Avatar:          %s (%s)\n", client.Avatar.Provider, client.Avatar.AvatarID)
			fmt.Fprintf(out, "Upload:          %s channel %s, %s, made for kids: %s\n",
				client.Upload.Provider, client.Upload.ChannelID, client.PrivacyDefault(), yesNo(client.Upload.MadeForKids))
			return nil
		},
	}
}

func newClientAddCommand(ctx *commandContext) *cobra.Command {
	var (
		idFlag             string
		nameFlag           string
		nicheFlag          string
		languageFlag       string
		toneFlag           string
		topicsFlag         []string
		topicModeFlag      string
		scheduleFlag       string
		timezoneFlag       string
		maxPerDayFlag      int
		maxUploadsFlag     int
		voiceProviderFlag  string
		voiceIDFlag        string
		avatarProviderFlag string
		avatarIDFlag       string
		uploadProviderFlag string
		channelIDFlag      string
		privacyFlag        string
		madeForKidsFlag    bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client profile to the clients file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, profiles, err := ctx.loadClients()
			if err != nil {
				return err
			}
			if _, exists := clients.ByID(profiles, idFlag); exists {
				return fmt.Errorf("client %q already exists", idFlag)
			}

			tone, ok := media.ParseTone(toneFlag)
			if !ok {
				return fmt.Errorf("invalid tone %q (educational, casual, professional)", toneFlag)
			}

			var privacy media.PrivacyStatus
			if privacyFlag != "" {
				parsed, ok := media.ParsePrivacyStatus(privacyFlag)
				if !ok {
					return fmt.Errorf("invalid privacy status %q (private, unlisted, public)", privacyFlag)
				}
				privacy = parsed
			}

			topics := make([]string, 0, len(topicsFlag))
			for _, topic := range topicsFlag {
				if trimmed := strings.TrimSpace(topic); trimmed != "" {
					topics = append(topics, trimmed)
				}
			}

			client := clients.Profile{
				ID:                 idFlag,
				DisplayName:        nameFlag,
				Niche:              nicheFlag,
				Language:           languageFlag,
				Tone:               tone,
				TopicBank:          topics,
				TopicSelectionMode: clients.TopicSelectionMode(topicModeFlag),
				Schedule: clients.Schedule{
					RunDailyAt: scheduleFlag,
					Timezone:   timezoneFlag,
					MaxPerDay:  maxPerDayFlag,
				},
				MaxUploadsPerDay: maxUploadsFlag,
				Voice:            clients.VoiceBinding{Provider: voiceProviderFlag, VoiceID: voiceIDFlag},
				Avatar:           clients.AvatarBinding{Provider: avatarProviderFlag, AvatarID: avatarIDFlag},
				Upload: clients.UploadBinding{
					Provider:             uploadProviderFlag,
					ChannelID:            channelIDFlag,
					DefaultPrivacyStatus: privacy,
					MadeForKids:          madeForKidsFlag,
				},
			}
			if err := client.Validate(); err != nil {
				return err
			}

			if err := clients.Save(cfg.Paths.ClientsFile, append(profiles, client)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added client %s to %s\n", client.ID, cfg.Paths.ClientsFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&idFlag, "id", "", "Client identifier (lowercase, digits, - and _)")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Display name")
	cmd.Flags().StringVar(&nicheFlag, "niche", "", "Content niche, e.g. \"AI productivity\"")
	cmd.Flags().StringVar(&languageFlag, "language", "en-GB", "BCP 47 language tag")
	cmd.Flags().StringVar(&toneFlag, "tone", "educational", "Script tone (educational, casual, professional)")
	cmd.Flags().StringSliceVar(&topicsFlag, "topic", nil, "Topic bank entry (repeatable)")
	cmd.Flags().StringVar(&topicModeFlag, "topic-mode", "rotate", "Topic selection mode (rotate, random, calendar)")
	cmd.Flags().StringVar(&scheduleFlag, "schedule", "0 9 * * *", "Daily run cron expression")
	cmd.Flags().StringVar(&timezoneFlag, "timezone", "", "Schedule timezone (defaults to the scheduler default)")
	cmd.Flags().IntVar(&maxPerDayFlag, "max-per-day", 1, "Maximum runs per day")
	cmd.Flags().IntVar(&maxUploadsFlag, "max-uploads-per-day", 1, "Maximum uploads per day")
	cmd.Flags().StringVar(&voiceProviderFlag, "voice-provider", "stub", "Voice provider (stub, elevenlabs)")
	cmd.Flags().StringVar(&voiceIDFlag, "voice-id", "voice-1", "Provider voice identifier")
	cmd.Flags().StringVar(&avatarProviderFlag, "avatar-provider", "stub", "Avatar render provider (stub, heygen, did)")
	cmd.Flags().StringVar(&avatarIDFlag, "avatar-id", "avatar-1", "Provider avatar identifier")
	cmd.Flags().StringVar(&uploadProviderFlag, "upload-provider", "stub", "Upload provider (stub, youtube)")
	cmd.Flags().StringVar(&channelIDFlag, "channel-id", "channel-1", "Upload channel identifier")
	cmd.Flags().StringVar(&privacyFlag, "privacy", "", "Default privacy status (private, unlisted, public)")
	cmd.Flags().BoolVar(&madeForKidsFlag, "made-for-kids", false, "Mark uploads as made for kids")

	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("niche")

	return cmd
}
