package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/cli/appctx"
	"github.com/guildsnap/guildsnap/internal/id"
	"github.com/guildsnap/guildsnap/internal/render"
	"github.com/guildsnap/guildsnap/internal/store"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List stored snapshots",
	RunE:    appctx.WithApp(appctx.DefaultOptions(), runLs),
}

var (
	lsJSON      bool
	lsPorcelain bool
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output as JSON")
	lsCmd.Flags().BoolVar(&lsPorcelain, "porcelain", false, "Machine-readable output")
}

func runLs(app *appctx.App, cmd *cobra.Command, args []string) error {
	ids, err := app.Store.List()
	if err != nil {
		return err
	}

	type Entry struct {
		ID      string  `json:"id"`
		Created string  `json:"created,omitempty"`
		SizeKB  float64 `json:"size_kb"`
	}

	var entries []Entry
	for _, snapID := range ids {
		info, err := app.Store.Info(snapID)
		if err != nil {
			info = store.Info{ID: snapID}
		}
		entry := Entry{ID: snapID, SizeKB: info.SizeKB}
		if created, err := id.Time(snapID); err == nil {
			entry.Created = created.UTC().Format(time.RFC3339)
		}
		entries = append(entries, entry)
	}

	r := render.NewRenderer(cmd.OutOrStdout(), render.Options{
		Format:    render.FormatTable,
		Porcelain: lsPorcelain,
	})
	if lsJSON {
		return r.RenderJSON(entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.ID, e.Created, fmt.Sprintf("%.1f", e.SizeKB)})
	}
	return r.RenderTable([]string{"ID", "CREATED", "SIZE_KB"}, rows)
}
