package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "guildsnap",
	Short: "Snapshot and restore Discord guilds",
	Long: `guildsnap captures a guild's structure (roles, channels, settings,
emojis, recent messages) into a portable snapshot document and can
rebuild a guild from one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("token", "", "Bot token (overrides GUILDSNAP_TOKEN)")
	rootCmd.PersistentFlags().String("store-dir", "", "Snapshot directory (overrides GUILDSNAP_STORE_DIR)")
	rootCmd.PersistentFlags().String("backend", "", "Store backend: file or sqlite (overrides GUILDSNAP_STORE_BACKEND)")
}
