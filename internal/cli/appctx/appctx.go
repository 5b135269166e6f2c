// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logger setup, store selection, and
// Discord session creation to reduce boilerplate across commands.
package appctx

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"

	"github.com/guildsnap/guildsnap/internal/config"
	"github.com/guildsnap/guildsnap/internal/store"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration
	Config *config.Config

	// Logger is configured from log_level
	Logger *slog.Logger

	// Store is the selected snapshot store (nil if NeedsStore is false)
	Store store.Store

	// Session is the Discord session (nil if NeedsSession is false)
	Session *discordgo.Session
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if c, ok := a.Store.(interface{ Close() error }); ok {
		c.Close()
	}
	a.Store = nil
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsStore indicates whether to open the snapshot store.
	// Defaults to true.
	NeedsStore bool

	// NeedsSession indicates whether to create a Discord session,
	// which requires a configured token.
	NeedsSession bool
}

// DefaultOptions returns default options (store required, no session).
func DefaultOptions() Options {
	return Options{
		NeedsStore:   true,
		NeedsSession: false,
	}
}

// WithSession returns options that require both store and session.
func WithSession() Options {
	return Options{
		NeedsStore:   true,
		NeedsSession: true,
	}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The store is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	app := &App{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	if tokenFlag := cmd.Flag("token"); tokenFlag != nil {
		if token := tokenFlag.Value.String(); token != "" {
			app.Config.Token = token
		}
	}
	if storeFlag := cmd.Flag("store-dir"); storeFlag != nil {
		if dir := storeFlag.Value.String(); dir != "" {
			app.Config.StoreDir = dir
		}
	}
	if backendFlag := cmd.Flag("backend"); backendFlag != nil {
		if backend := backendFlag.Value.String(); backend != "" {
			app.Config.StoreBackend = backend
		}
	}

	app.Logger = newLogger(app.Config.LogLevel)
	slog.SetDefault(app.Logger)

	if opts.NeedsStore {
		s, err := openStore(app.Config)
		if err != nil {
			return nil, err
		}
		app.Store = s
	}

	if opts.NeedsSession {
		if app.Config.Token == "" {
			return nil, fmt.Errorf("no bot token configured (set GUILDSNAP_TOKEN or use --token)")
		}
		session, err := discordgo.New("Bot " + app.Config.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		app.Session = session
	}

	return app, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot catalog: %w", err)
		}
		return s, nil
	default:
		s, err := store.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		return s, nil
	}
}
