package cli

import (
	"context"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/lherron/pressmigrate/internal/cli/appctx"
	"github.com/lherron/pressmigrate/internal/render"
)

var logger = loggo.GetLogger("pressmigrate.cli")

var rootCmd = &cobra.Command{
	Use:   "pressmigrate",
	Short: "Migrate a WordPress site into a Hygraph content graph",
	Long: `pressmigrate copies authors, categories, posts, featured images and
comments from a WordPress REST API into a Hygraph project.

Runs are safe to repeat: content that already exists in Hygraph (matched by
name, slug or file name) is reused instead of created again. Running
pressmigrate without a subcommand is the same as "pressmigrate run".`,
	Args:          cobra.NoArgs,
	RunE:          appctx.WithApp(appctx.Options{NeedsDestination: true}, runMigration),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which cancels a running
// migration between items
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "", "Summary format: table, tsv, json or yaml (overrides PRESSMIGRATE_OUTPUT)")
	rootCmd.PersistentFlags().String("journal", "", "Path to the run journal (overrides PRESSMIGRATE_JOURNAL_PATH)")
	rootCmd.PersistentFlags().Int("jobs", 1, "Concurrent publishes within one publish phase (overrides PRESSMIGRATE_PUBLISH_JOBS)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level or loggo spec (overrides PRESSMIGRATE_LOG_LEVEL)")
	rootCmd.PersistentFlags().Bool("porcelain", false, "Stable output for scripts: compact JSON, unpadded tab-separated tables")
}

func renderOptions(cmd *cobra.Command, format render.Format) render.Options {
	porcelain, _ := cmd.Flags().GetBool("porcelain")
	return render.Options{Format: format, Porcelain: porcelain}
}
