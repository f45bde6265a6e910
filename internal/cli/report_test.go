package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/juju/errors"

	"github.com/lherron/pressmigrate/internal/journal"
)

// seedJournal records two finished runs that differ in one outcome and
// returns their ids, oldest first
func seedJournal(t *testing.T, path string) (string, string) {
	t.Helper()
	ctx := context.Background()
	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer j.Close()

	record := func(postStatus string) string {
		id, err := j.BeginRun(ctx, "https://wp.test/wp-json/wp/v2", "https://hygraph.test")
		if err != nil {
			t.Fatalf("BeginRun() error: %v", err)
		}
		for _, e := range []journal.Entry{
			{Phase: "authors", Kind: "author", Key: "Ann", DestID: "a1", Status: "created"},
			{Phase: "posts", Kind: "post", Key: "first", DestID: "p1", Status: postStatus},
		} {
			if err := j.Append(ctx, id, e); err != nil {
				t.Fatalf("Append() error: %v", err)
			}
		}
		if err := j.FinishRun(ctx, id, journal.RunCompleted, nil); err != nil {
			t.Fatalf("FinishRun() error: %v", err)
		}
		return id
	}
	return record("created"), record("reused")
}

func TestReport_RequiresJournal(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "report")
	if err == nil || !errors.Is(err, errors.NotValid) {
		t.Fatalf("error = %v, want NotValid", err)
	}
}

func TestReport_ListRuns(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "journal.db")
	first, second := seedJournal(t, path)

	out, _, err := execute(t, "report", "--journal", path)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "OUTCOMES") {
		t.Errorf("missing table header:\n%s", out)
	}
	i, k := strings.Index(out, first[:8]), strings.Index(out, second[:8])
	if i < 0 || k < 0 || k > i {
		t.Errorf("want both runs newest first:\n%s", out)
	}

	out, _, err = execute(t, "report", "--journal", path, "--limit", "1", "-o", "json")
	if err != nil {
		t.Fatalf("report -o json failed: %v", err)
	}
	var runs []journal.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].ID != second {
		t.Errorf("runs = %+v, want only %s", runs, second)
	}
}

func TestReport_Porcelain(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "journal.db")
	_, second := seedJournal(t, path)

	out, _, err := execute(t, "report", "--journal", path, "--porcelain")
	if err != nil {
		t.Fatalf("report --porcelain failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("want header and two rows, got:\n%s", out)
	}
	if lines[0] != "ID\tSTARTED\tSTATUS\tOUTCOMES\tFAILED\tSOURCE" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], second[:8]+"\t") {
		t.Errorf("newest run should come first unpadded: %q", lines[1])
	}
	if strings.Contains(out, "----") {
		t.Errorf("porcelain output has a table separator:\n%s", out)
	}
}

func TestReport_EmptyJournal(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PRESSMIGRATE_JOURNAL_PATH", filepath.Join(dir, "journal.db"))

	out, _, err := execute(t, "report")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out, "no runs recorded") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestReport_RunEntries(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "journal.db")
	first, _ := seedJournal(t, path)

	out, _, err := execute(t, "report", first[:8], "--journal", path)
	if err != nil {
		t.Fatalf("report RUN_ID failed: %v", err)
	}
	for _, want := range []string{first, "2 outcomes", "Ann", "first", "created"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	_, _, err = execute(t, "report", "ffffffff-none", "--journal", path)
	if err == nil || !errors.Is(err, errors.NotFound) {
		t.Errorf("unknown run error = %v, want NotFound", err)
	}
}

func TestReport_Diff(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "journal.db")
	first, second := seedJournal(t, path)

	out, _, err := execute(t, "report", first, "--diff", second, "--journal", path)
	if err != nil {
		t.Fatalf("report --diff failed: %v", err)
	}
	for _, want := range []string{`-posts post "first" created`, `+posts post "first" reused`} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	out, _, err = execute(t, "report", first, "--diff", first, "--journal", path)
	if err != nil {
		t.Fatalf("report --diff same run failed: %v", err)
	}
	if !strings.Contains(out, "identical") {
		t.Errorf("unexpected output: %q", out)
	}

	if _, _, err := execute(t, "report", "--diff", second, "--journal", path); err == nil {
		t.Error("expected error for --diff without RUN_ID")
	}
}
