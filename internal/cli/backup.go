package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/builder"
	"github.com/guildsnap/guildsnap/internal/clamp"
	"github.com/guildsnap/guildsnap/internal/cli/appctx"
	"github.com/guildsnap/guildsnap/internal/discord"
	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

var backupCmd = &cobra.Command{
	Use:   "backup <guild-id>",
	Short: "Capture a guild into a snapshot",
	Long: `Reads the guild's settings, roles, channels, recent messages, and
emojis and persists them as a snapshot document. Requires the bot to
hold the Manage Server permission on the guild.`,
	Args: cobra.ExactArgs(1),
	RunE: appctx.WithApp(appctx.WithSession(), runBackup),
}

var (
	backupMaxMessages int
	backupPretty      bool
	backupStdout      bool
	backupID          string
	backupSkip        []string
	backupImages      string
)

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().IntVar(&backupMaxMessages, "max-messages", 0, "Messages to capture per channel (default 10)")
	backupCmd.Flags().BoolVar(&backupPretty, "pretty", false, "Indent the persisted document")
	backupCmd.Flags().BoolVar(&backupStdout, "stdout", false, "Write the snapshot to stdout instead of the store")
	backupCmd.Flags().StringVar(&backupID, "id", "", "Snapshot identifier (default: generated)")
	backupCmd.Flags().StringSliceVar(&backupSkip, "skip", nil, "Categories to skip: roles, emojis, channels")
	backupCmd.Flags().StringVar(&backupImages, "images", "url", "Image capture mode: url or base64")
}

func runBackup(app *appctx.App, cmd *cobra.Command, args []string) error {
	h, err := discord.Open(app.Session, args[0])
	if err != nil {
		return fmt.Errorf("failed to open guild: %w", err)
	}

	opts := domain.BuildOptions{
		MaxMessagesPerChannel: backupMaxMessages,
		Persist:               !backupStdout,
		Pretty:                backupPretty,
		SnapshotID:            backupID,
	}
	switch backupImages {
	case "url", "":
	case "base64":
		opts.ImageMode = domain.ImageModeBase64
	default:
		return fmt.Errorf("unknown image mode %q (want url or base64)", backupImages)
	}
	if len(backupSkip) > 0 {
		opts.DoNotBackup = make(map[string]bool, len(backupSkip))
		for _, name := range backupSkip {
			opts.DoNotBackup[name] = true
		}
	}

	b := &builder.Builder{
		Store:   app.Store,
		Fetcher: discord.NewHTTPFetcher(),
		Logger:  app.Logger,
		Skip:    skipConfig(app),
	}
	snap, err := b.Build(cmd.Context(), h, opts)
	if err != nil {
		return err
	}

	if backupStdout {
		data, err := snapshot.Encode(snap, backupPretty)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", snap.ID, snapshot.Summary(snap))
	return nil
}

// skipConfig folds the configured ignore lists into the channel filter.
func skipConfig(app *appctx.App) clamp.SkipConfig {
	cfg := app.Config
	if len(cfg.IgnorePrefixes) == 0 && len(cfg.IgnoreChannels) == 0 {
		return clamp.SkipConfig{}
	}
	return clamp.SkipConfig{
		Enabled:  true,
		Prefixes: cfg.IgnorePrefixes,
		Names:    cfg.IgnoreChannels,
	}
}
