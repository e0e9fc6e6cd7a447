package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osscompliance/catreg/internal/config"
	"github.com/osscompliance/catreg/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the catalog database",
	Long: `Initialize creates the SQLite database and runs all schema migrations.
Running init against an existing database applies any pending migrations.`,
	RunE: runInit,
}

func init() {
	rootAdmCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return exitError(1, fmt.Errorf("failed to load config: %w", err))
	}

	// Override DB path from flag if provided
	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}

	dbExists := false
	if _, err := os.Stat(cfg.DBPath); err == nil {
		dbExists = true
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return exitError(1, fmt.Errorf("failed to open database: %w", err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		return exitError(1, fmt.Errorf("failed to run migrations: %w", err))
	}

	if dbExists {
		fmt.Printf("✓ Database already initialized at %s\n", cfg.DBPath)
		fmt.Printf("✓ Migrations applied\n")
	} else {
		fmt.Printf("✓ Initialized new database at %s\n", cfg.DBPath)
	}

	return nil
}
