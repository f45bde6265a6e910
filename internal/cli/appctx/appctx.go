// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logging setup and journal opening.
package appctx

import (
	"strconv"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/lherron/pressmigrate/internal/config"
	"github.com/lherron/pressmigrate/internal/journal"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration with flag overrides applied
	Config *config.Config

	// Journal is the opened run journal, nil when none is configured
	Journal *journal.Journal
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.Journal != nil {
		a.Journal.Close()
		a.Journal = nil
	}
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsDestination requires destination credentials to be configured
	NeedsDestination bool

	// NeedsJournal fails the bootstrap when no journal path is configured
	NeedsJournal bool
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The journal is closed automatically when the wrapped function returns.
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
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Annotate(err, "loading config")
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := loggo.ConfigureLoggers(cfg.LoggingSpec()); err != nil {
		return nil, errors.NotValidf("log level %q", cfg.LogLevel)
	}

	if opts.NeedsDestination {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	app := &App{Config: cfg}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, errors.Annotate(err, "opening journal")
		}
		app.Journal = j
	} else if opts.NeedsJournal {
		return nil, errors.NewNotValid(nil, "no journal configured: set PRESSMIGRATE_JOURNAL_PATH or pass --journal")
	}

	return app, nil
}

// applyFlags overrides config values with flags the user set explicitly
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		cfg.Output = f.Value.String()
	}
	if f := cmd.Flags().Lookup("journal"); f != nil && f.Changed {
		cfg.JournalPath = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := cmd.Flags().Lookup("jobs"); f != nil && f.Changed {
		n, err := strconv.Atoi(f.Value.String())
		if err != nil || n < 1 {
			return errors.NotValidf("--jobs %q", f.Value.String())
		}
		cfg.PublishJobs = n
	}
	return nil
}
