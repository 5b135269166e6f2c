package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/cli/appctx"
	"github.com/guildsnap/guildsnap/internal/discord"
	"github.com/guildsnap/guildsnap/internal/domain"
	"github.com/guildsnap/guildsnap/internal/restore"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <guild-id> <snapshot-id>",
	Short: "Rebuild a guild from a snapshot",
	Long: `Applies a stored snapshot to the guild: settings, roles, channel
structure, AFK and widget configuration, and emojis. By default the
guild's existing roles, channels, emojis, and webhooks are removed
first. Pass "-" as the snapshot id to read a snapshot document from
stdin instead of the store.`,
	Args: cobra.ExactArgs(2),
	RunE: appctx.WithApp(appctx.WithSession(), runRestore),
}

var (
	restoreNoClear  bool
	restoreAttempts int
)

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().BoolVar(&restoreNoClear, "no-clear", false, "Keep existing guild state instead of clearing it first")
	restoreCmd.Flags().IntVar(&restoreAttempts, "attempts", 0, "Retry budget per restore stage (default 3)")
}

func runRestore(app *appctx.App, cmd *cobra.Command, args []string) error {
	h, err := discord.Open(app.Session, args[0])
	if err != nil {
		return fmt.Errorf("failed to open guild: %w", err)
	}

	opts := domain.DefaultRestoreOptions()
	opts.ClearBeforeRestore = !restoreNoClear

	var target any = args[1]
	if args[1] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read snapshot from stdin: %w", err)
		}
		snap, err := snapshot.Decode(data)
		if err != nil {
			return err
		}
		target = snap
	}

	o := &restore.Orchestrator{
		Store:    app.Store,
		Fetcher:  discord.NewHTTPFetcher(),
		Logger:   app.Logger,
		Skip:     skipConfig(app),
		Attempts: restoreAttempts,
	}
	snap, err := o.Restore(cmd.Context(), h, target, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "restored %s  %s\n", snap.ID, snapshot.Summary(snap))
	return nil
}
