package cli

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/lherron/pressmigrate/internal/cli/appctx"
	"github.com/lherron/pressmigrate/internal/journal"
	"github.com/lherron/pressmigrate/internal/render"
)

var reportCmd = &cobra.Command{
	Use:   "report [RUN_ID]",
	Short: "Show recorded runs from the journal",
	Long: `Without arguments, lists recorded runs newest first.
With a RUN_ID (or any unique prefix of one), lists that run's outcomes.
With --diff OTHER, prints a unified diff of the outcomes of RUN_ID and OTHER.

Requires a journal (PRESSMIGRATE_JOURNAL_PATH or --journal).`,
	Args: cobra.MaximumNArgs(1),
	RunE: appctx.WithApp(appctx.Options{NeedsJournal: true}, runReport),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Int("limit", 20, "Maximum runs to list")
	reportCmd.Flags().String("diff", "", "Diff RUN_ID against this run")
}

func runReport(app *appctx.App, cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	format, err := render.ParseFormat(app.Config.Output)
	if err != nil {
		return err
	}
	r := render.NewRenderer(cmd.OutOrStdout(), renderOptions(cmd, format))

	other, _ := cmd.Flags().GetString("diff")
	if other != "" {
		if len(args) == 0 {
			return errors.NewNotValid(nil, "--diff needs a RUN_ID")
		}
		diff, err := app.Journal.Diff(ctx, args[0], other)
		if err != nil {
			return err
		}
		if diff == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "runs have identical outcomes")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), diff)
		return nil
	}

	if len(args) == 1 {
		run, err := app.Journal.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		entries, err := app.Journal.Entries(ctx, run.ID)
		if err != nil {
			return err
		}
		if format == render.FormatTable {
			fmt.Fprintf(cmd.OutOrStdout(), "run %s  %s  %d outcomes, %d failed\n\n", run.ID, run.Status, run.Outcomes, run.Failed)
		}
		return r.Render(entryTable(entries))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := app.Journal.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 && format == render.FormatTable {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	return r.Render(runTable(runs))
}

type runTable []journal.Run

func (t runTable) Headers() []string {
	return []string{"ID", "STARTED", "STATUS", "OUTCOMES", "FAILED", "SOURCE"}
}

func (t runTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, run := range t {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Status,
			strconv.Itoa(run.Outcomes),
			strconv.Itoa(run.Failed),
			run.SourceAPI,
		})
	}
	return rows
}

type entryTable []journal.Entry

func (t entryTable) Headers() []string {
	return []string{"SEQ", "PHASE", "KIND", "KEY", "STATUS", "DEST ID", "DETAIL"}
}

func (t entryTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		detail := e.Message
		if e.Error != "" {
			detail = e.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Seq), e.Phase, e.Kind, e.Key, e.Status, e.DestID, detail,
		})
	}
	return rows
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
