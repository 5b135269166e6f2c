package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/cli/appctx"
	"github.com/guildsnap/guildsnap/internal/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff <snapshot-id> <snapshot-id>",
	Short: "Compare two snapshots",
	Long:  `Prints a unified diff of the two snapshots' documents.`,
	Args:  cobra.ExactArgs(2),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runDiff),
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(app *appctx.App, cmd *cobra.Command, args []string) error {
	load := func(snapID string) (*snapshot.Snapshot, error) {
		data, err := app.Store.Get(snapID)
		if err != nil {
			return nil, err
		}
		return snapshot.Decode(data)
	}

	a, err := load(args[0])
	if err != nil {
		return err
	}
	b, err := load(args[1])
	if err != nil {
		return err
	}

	out, err := snapshot.Diff(a, b)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "snapshots are identical")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
