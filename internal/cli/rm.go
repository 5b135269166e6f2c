package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/cli/appctx"
)

var rmCmd = &cobra.Command{
	Use:   "rm <snapshot-id>...",
	Short: "Delete stored snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE:  appctx.WithApp(appctx.DefaultOptions(), runRm),
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(app *appctx.App, cmd *cobra.Command, args []string) error {
	for _, snapID := range args {
		if err := app.Store.Delete(snapID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", snapID)
	}
	return nil
}
