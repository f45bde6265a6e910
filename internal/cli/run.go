package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/lherron/pressmigrate/internal/cli/appctx"
	"github.com/lherron/pressmigrate/internal/destination"
	"github.com/lherron/pressmigrate/internal/journal"
	"github.com/lherron/pressmigrate/internal/migrate"
	"github.com/lherron/pressmigrate/internal/render"
	"github.com/lherron/pressmigrate/internal/source"
	"github.com/lherron/pressmigrate/internal/upload"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the migration",
	Long: `Reads the WordPress site and the existing Hygraph content, creates what
is missing as drafts, then publishes everything in dependency order and links
posts to their categories.

Item failures are reported and do not stop the run. The command fails only
when the initial reads fail or the run is interrupted.`,
	Args: cobra.NoArgs,
	RunE: appctx.WithApp(appctx.Options{NeedsDestination: true}, runMigration),
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runMigration(app *appctx.App, cmd *cobra.Command, args []string) error {
	cfg := app.Config
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	src, err := source.NewClient(source.Options{
		BaseURL:  cfg.SourceAPI,
		User:     cfg.SourceUser,
		Password: cfg.SourcePassword,
		PerPage:  cfg.SourcePerPage,
		Timeout:  cfg.HTTPTimeout,
	})
	if err != nil {
		return err
	}
	dest, err := destination.NewClient(cfg.DestinationAPI, cfg.DestinationToken, cfg.HTTPTimeout)
	if err != nil {
		return err
	}
	uploader := upload.NewClient(cfg.HTTPTimeout)

	// keep stdout machine-readable for structured formats
	renderOpts := renderOptions(cmd, format)
	statusOut := cmd.OutOrStdout()
	if format != render.FormatTable || renderOpts.Porcelain {
		statusOut = cmd.ErrOrStderr()
	}

	opts := migrate.Options{
		Jobs:         cfg.PublishJobs,
		Out:          statusOut,
		ShowProgress: true,
	}

	runID := ""
	if app.Journal != nil {
		runID, err = app.Journal.BeginRun(ctx, cfg.SourceAPI, cfg.DestinationAPI)
		if err != nil {
			return err
		}
		opts.Observer = journalObserver(ctx, app.Journal, runID)
		logger.Infof("recording run %s in %s", runID, app.Journal.Path())
	}

	report, runErr := migrate.New(src, dest, uploader, opts).Run(ctx)

	if app.Journal != nil {
		status := journal.RunCompleted
		switch {
		case runErr != nil && ctx.Err() != nil:
			status = journal.RunInterrupted
		case runErr != nil:
			status = journal.RunFailed
		}
		if err := app.Journal.FinishRun(context.WithoutCancel(ctx), runID, status, runErr); err != nil {
			logger.Warningf("journal: %v", err)
		}
	}

	summary := report.Summary()
	if err := printSummary(statusOut, cmd.OutOrStdout(), renderOpts, summary, runID); err != nil {
		return errors.Annotate(err, "writing summary")
	}
	if n := summary.Failures(); n > 0 {
		logger.Warningf("%d items failed; rerun after fixing them, existing content is reused", n)
	}

	return runErr
}

func printSummary(statusOut, out io.Writer, opts render.Options, summary migrate.Summary, runID string) error {
	fmt.Fprintln(statusOut, "\n--- Summary ---")
	if runID != "" {
		fmt.Fprintf(statusOut, "run %s\n", runID)
	}
	return render.NewRenderer(out, opts).Render(summary)
}

// journalObserver appends every outcome to the journal. Journal write
// failures are logged and never affect the run.
func journalObserver(ctx context.Context, j *journal.Journal, runID string) func(migrate.Outcome) {
	ctx = context.WithoutCancel(ctx)
	return func(o migrate.Outcome) {
		if err := j.Append(ctx, runID, entryFromOutcome(o)); err != nil {
			logger.Warningf("journal: %v", err)
		}
	}
}

func entryFromOutcome(o migrate.Outcome) journal.Entry {
	e := journal.Entry{
		Phase:   string(o.Phase),
		Kind:    string(o.Kind),
		Key:     o.Key,
		DestID:  o.DestID,
		Status:  string(o.Status),
		Message: o.Message,
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}
