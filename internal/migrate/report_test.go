package migrate

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/juju/errors"

	"github.com/lherron/pressmigrate/internal/domain"
)

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		name string
		o    Outcome
		want string
	}{
		{
			name: "created",
			o:    Outcome{Kind: domain.KindPost, Key: "first", DestID: "p1", Status: StatusCreated},
			want: `✅ created post "first" -> p1`,
		},
		{
			name: "skipped with message",
			o:    Outcome{Kind: domain.KindPost, Key: "draft", Status: StatusSkipped, Message: "status draft"},
			want: `⏩ skipped post "draft" (status draft)`,
		},
		{
			name: "failed",
			o:    Outcome{Kind: domain.KindAuthor, Key: "Ann", Status: StatusFailed, Err: errors.New("boom")},
			want: `❌ failed author "Ann": boom`,
		},
		{
			name: "warning",
			o:    Outcome{Kind: domain.KindComment, Key: "#5", Status: StatusWarning, Message: "post #9 was not migrated"},
			want: `⚠️ warning comment "#5" (post #9 was not migrated)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.o.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusIcons(t *testing.T) {
	want := map[Status]string{
		StatusCreated:   "✅",
		StatusPublished: "✅",
		StatusLinked:    "✅",
		StatusReused:    "⏩",
		StatusSkipped:   "⏩",
		StatusWarning:   "⚠️",
		StatusFailed:    "❌",
	}
	for _, s := range Statuses {
		if got := s.Icon(); got != want[s] {
			t.Errorf("%s icon = %q, want %q", s, got, want[s])
		}
	}
}

func TestReport_SummaryAndFailed(t *testing.T) {
	var out bytes.Buffer
	r := NewReport(&out, nil)

	r.BeginPhase(PhasePosts)
	r.Add(Outcome{Kind: domain.KindPost, Key: "a", Status: StatusCreated})
	r.Add(Outcome{Kind: domain.KindPost, Key: "b", Status: StatusFailed, Err: errors.New("x")})
	r.Add(Outcome{Kind: domain.KindPost, Key: "a", Status: StatusPublished})
	r.Add(Outcome{Kind: domain.KindAuthor, Key: "Ann", Status: StatusReused})

	summary := r.Summary()
	if len(summary) != len(domain.Kinds) {
		t.Fatalf("summary has %d rows, want %d", len(summary), len(domain.Kinds))
	}

	var post KindSummary
	for _, k := range summary {
		if k.Kind == domain.KindPost {
			post = k
		}
	}
	want := KindSummary{Kind: domain.KindPost, Created: 1, Published: 1, Failed: 1}
	if diff := cmp.Diff(want, post); diff != "" {
		t.Errorf("post summary mismatch (-want +got):\n%s", diff)
	}
	if summary.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", summary.Failures())
	}

	failed := r.Failed()
	if len(failed) != 1 || failed[0].Key != "b" {
		t.Errorf("Failed() = %v", failed)
	}

	rows := summary.Rows()
	if len(rows[0]) != len(summary.Headers()) {
		t.Errorf("row width %d != header width %d", len(rows[0]), len(summary.Headers()))
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "--- Migrating posts and assets ---" || len(lines) != 5 {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestReport_ConcurrentAdd(t *testing.T) {
	var mu sync.Mutex
	observed := 0
	r := NewReport(nil, func(Outcome) {
		mu.Lock()
		observed++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(Outcome{Kind: domain.KindAsset, Status: StatusPublished})
		}()
	}
	wg.Wait()

	if got := r.Count(domain.KindAsset, StatusPublished); got != 50 {
		t.Errorf("Count() = %d, want 50", got)
	}
	if observed != 50 {
		t.Errorf("observer saw %d outcomes, want 50", observed)
	}
}
