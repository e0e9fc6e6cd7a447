package cli

import (
	"github.com/spf13/cobra"
)

var rootAdmCmd = &cobra.Command{
	Use:   "catregadm",
	Short: "Administrative CLI for the component catalog registry",
	Long: `catregadm is the administrative companion to the catalog service. It
handles database lifecycle (init), merge and split of catalog documents,
moderation queue processing, and change-log inspection. These operations
should not be exposed to regular users.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteAdmin runs the admin root command
func ExecuteAdmin() error {
	return rootAdmCmd.Execute()
}

func init() {
	// Global flags for catregadm
	rootAdmCmd.PersistentFlags().String("db", "", "Path to database file (overrides CATREG_DB_PATH)")
	rootAdmCmd.PersistentFlags().String("actor", "", "Email of the acting user (overrides CATREG_ACTOR)")
	rootAdmCmd.PersistentFlags().String("group", "admin", "Permission group of the acting user")
}
