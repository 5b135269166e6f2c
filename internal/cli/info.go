package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/cli/appctx"
	"github.com/guildsnap/guildsnap/internal/id"
	"github.com/guildsnap/guildsnap/internal/render"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

var infoCmd = &cobra.Command{
	Use:   "info <snapshot-id>",
	Short: "Show what a snapshot contains",
	Args:  cobra.ExactArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runInfo),
}

var infoJSON bool

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Output the full snapshot as JSON")
}

func runInfo(app *appctx.App, cmd *cobra.Command, args []string) error {
	data, err := app.Store.Get(args[0])
	if err != nil {
		return err
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return err
	}

	if infoJSON {
		r := render.NewRenderer(cmd.OutOrStdout(), render.Options{Format: render.FormatJSON})
		return r.RenderJSON(snap)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:       %s\n", snap.ID)
	if created, err := id.Time(snap.ID); err == nil {
		fmt.Fprintf(out, "created:  %s\n", created.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "guild:    %s\n", snap.Name)
	fmt.Fprintf(out, "contents: %s\n", snapshot.Summary(snap))
	return nil
}
