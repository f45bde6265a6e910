package appctx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	for _, key := range []string{
		"HYGRAPH_API", "HYGRAPH_API_FILE", "HYGRAPH_TOKEN", "HYGRAPH_TOKEN_FILE",
		"WP_API", "WP_USER", "WP_PASSWORD", "WP_PASSWORD_FILE", "WP_PER_PAGE",
		"PRESSMIGRATE_PUBLISH_JOBS", "PRESSMIGRATE_HTTP_TIMEOUT", "PRESSMIGRATE_JOURNAL_PATH",
		"PRESSMIGRATE_LOG_LEVEL", "PRESSMIGRATE_OUTPUT",
	} {
		t.Setenv(key, "")
	}
	oldCwd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(oldCwd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	return tmpDir
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("output", "", "")
	cmd.Flags().String("journal", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().Int("jobs", 1, "")
	return cmd
}

func TestBootstrap_ConfigOnly(t *testing.T) {
	isolate(t)

	app, err := Bootstrap(testCommand(), Options{})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	defer app.Close()

	if app.Config == nil {
		t.Error("Config should not be nil")
	}
	if app.Journal != nil {
		t.Error("Journal should be nil when no path is configured")
	}
}

func TestBootstrap_RequiresDestination(t *testing.T) {
	isolate(t)

	_, err := Bootstrap(testCommand(), Options{NeedsDestination: true})
	if !errors.Is(err, errors.NotValid) {
		t.Fatalf("expected NotValid, got %v", err)
	}

	t.Setenv("HYGRAPH_API", "https://api.example/graphql")
	t.Setenv("HYGRAPH_TOKEN", "tok")
	app, err := Bootstrap(testCommand(), Options{NeedsDestination: true})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	app.Close()
}

func TestBootstrap_FlagsOverrideConfig(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PRESSMIGRATE_OUTPUT", "yaml")

	cmd := testCommand()
	journalPath := filepath.Join(dir, "runs.db")
	if err := cmd.Flags().Parse([]string{"--output", "json", "--journal", journalPath, "--jobs", "4"}); err != nil {
		t.Fatal(err)
	}

	app, err := Bootstrap(cmd, Options{NeedsJournal: true})
	if err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	defer app.Close()

	if app.Config.Output != "json" {
		t.Errorf("Output = %q, want json", app.Config.Output)
	}
	if app.Config.PublishJobs != 4 {
		t.Errorf("PublishJobs = %d, want 4", app.Config.PublishJobs)
	}
	if app.Journal == nil || app.Journal.Path() != journalPath {
		t.Errorf("journal not opened at %s", journalPath)
	}

	app.Close()
	app.Close()
}

func TestBootstrap_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		opts Options
	}{
		{"journal required", nil, Options{NeedsJournal: true}},
		{"bad jobs", []string{"--jobs", "0"}, Options{}},
		{"bad log level", []string{"--log-level", "LOUD"}, Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			cmd := testCommand()
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			if _, err := Bootstrap(cmd, tt.opts); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
