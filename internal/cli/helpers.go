package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/osscompliance/catreg/internal/catalog"
	"github.com/osscompliance/catreg/internal/changelog"
	"github.com/osscompliance/catreg/internal/config"
	"github.com/osscompliance/catreg/internal/db"
	"github.com/osscompliance/catreg/internal/moderation"
	"github.com/osscompliance/catreg/internal/notify"
	"github.com/osscompliance/catreg/internal/permission"
	"github.com/osscompliance/catreg/internal/store"
)

// exitError returns an error that will cause the CLI to exit with the given code
func exitError(code int, err error) error {
	// For now, just return the error. We'll enhance this with proper exit codes later
	return err
}

// app bundles everything a command needs to operate on the catalog.
type app struct {
	Config     *config.Config
	DB         *db.DB
	Store      *store.Store
	Changes    *changelog.Recorder
	Moderation *moderation.Store
	Notifier   *notify.Dispatcher
	Handler    *catalog.Handler
	Actor      permission.User
}

func (a *app) Close() {
	a.Notifier.Close()
	a.DB.Close()
}

// openApp loads config, opens the database and wires up the catalog handler.
// The caller must Close the returned app.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, exitError(1, fmt.Errorf("failed to load config: %w", err))
	}

	// Override DB path from flag if provided
	if dbPath := cmd.Flag("db").Value.String(); dbPath != "" {
		cfg.DBPath = dbPath
	}

	actor, err := resolveCurrentActor(cfg, cmd)
	if err != nil {
		return nil, exitError(1, err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, exitError(1, fmt.Errorf("failed to open database: %w", err))
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, exitError(1, fmt.Errorf("failed to run migrations: %w", err))
	}

	log := newLogger(cfg.LogLevel)
	s := store.New(database)
	changes := changelog.NewRecorder(database)
	mod := moderation.NewStore(database)
	notifier := notify.NewSizedDispatcher(
		notify.LogCommentSink{Log: log}, notify.LogMailer{Log: log}, log,
		cfg.NotifyQueueSize, cfg.NotifyWorkers)
	handler := catalog.New(s, changes, mod, permission.DefaultEvaluator{}, notifier, log, catalog.Options{
		DefaultCategory:       cfg.DefaultCategory,
		MainlineStateForUsers: cfg.MainlineStateForUsers,
	})

	return &app{
		Config:     cfg,
		DB:         database,
		Store:      s,
		Changes:    changes,
		Moderation: mod,
		Notifier:   notifier,
		Handler:    handler,
		Actor:      actor,
	}, nil
}

// resolveCurrentActor resolves the acting user from the --actor flag,
// environment variables, or config.
func resolveCurrentActor(cfg *config.Config, cmd *cobra.Command) (permission.User, error) {
	email := cmd.Flag("actor").Value.String()
	if email == "" {
		email = cfg.Actor()
	}
	if email == "" {
		return permission.User{}, fmt.Errorf("no actor configured (set CATREG_ACTOR or use --actor flag)")
	}

	group := permission.Group(cmd.Flag("group").Value.String())
	switch group {
	case permission.GroupUser, permission.GroupClearingAdmin, permission.GroupEccAdmin, permission.GroupAdmin:
	default:
		return permission.User{}, fmt.Errorf("unknown permission group %q", group)
	}

	return permission.User{Email: email, Group: group}, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// readJSONFile decodes a JSON document file into v.
func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
