package migrate

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/lherron/pressmigrate/internal/domain"
)

// Status is the result of one item in one phase
type Status string

const (
	StatusCreated   Status = "created"
	StatusReused    Status = "reused"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
	StatusPublished Status = "published"
	StatusLinked    Status = "linked"
	StatusWarning   Status = "warning"
)

// Statuses lists every status in summary column order
var Statuses = []Status{StatusCreated, StatusReused, StatusPublished, StatusLinked, StatusSkipped, StatusWarning, StatusFailed}

// Icon returns the status line marker
func (s Status) Icon() string {
	switch s {
	case StatusCreated, StatusPublished, StatusLinked:
		return "✅"
	case StatusReused, StatusSkipped:
		return "⏩"
	case StatusWarning:
		return "⚠️"
	default:
		return "❌"
	}
}

// Phase names a step of the run
type Phase string

const (
	PhaseAuthors           Phase = "authors"
	PhaseCategories        Phase = "categories"
	PhasePublishCategories Phase = "publish-categories"
	PhasePosts             Phase = "posts"
	PhaseComments          Phase = "comments"
	PhasePublishAssets     Phase = "publish-assets"
	PhasePublishPosts      Phase = "publish-posts"
	PhasePublishComments   Phase = "publish-comments"
	PhaseLink              Phase = "link"
	PhasePublishExisting   Phase = "publish-existing-posts"
	PhasePublishAuthors    Phase = "publish-authors"
)

var phaseTitles = map[Phase]string{
	PhaseAuthors:           "Migrating authors",
	PhaseCategories:        "Migrating categories",
	PhasePublishCategories: "Publishing categories",
	PhasePosts:             "Migrating posts and assets",
	PhaseComments:          "Migrating comments",
	PhasePublishAssets:     "Publishing assets",
	PhasePublishPosts:      "Publishing new posts",
	PhasePublishComments:   "Publishing comments",
	PhaseLink:              "Linking post categories",
	PhasePublishExisting:   "Publishing existing posts",
	PhasePublishAuthors:    "Publishing authors",
}

// Outcome is what happened to one item in one phase. Key is the natural
// key, or a source reference for comments.
type Outcome struct {
	Phase   Phase
	Kind    domain.Kind
	Key     string
	DestID  string
	Status  Status
	Message string
	Err     error
}

// String formats the outcome as a status line
func (o Outcome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %q", o.Status.Icon(), o.Status, o.Kind, o.Key)
	if o.DestID != "" {
		fmt.Fprintf(&b, " -> %s", o.DestID)
	}
	if o.Message != "" {
		fmt.Fprintf(&b, " (%s)", o.Message)
	}
	if o.Err != nil {
		fmt.Fprintf(&b, ": %v", o.Err)
	}
	return b.String()
}

// Report collects outcomes and echoes each one as a status line
type Report struct {
	mu       sync.Mutex
	out      io.Writer
	observer func(Outcome)
	outcomes []Outcome
}

// NewReport creates a report writing status lines to out. observer, when
// set, sees every outcome in order.
func NewReport(out io.Writer, observer func(Outcome)) *Report {
	if out == nil {
		out = io.Discard
	}
	return &Report{out: out, observer: observer}
}

// BeginPhase writes a phase heading
func (r *Report) BeginPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	title := phaseTitles[p]
	if title == "" {
		title = string(p)
	}
	fmt.Fprintf(r.out, "\n--- %s ---\n", title)
}

// Add records an outcome. Safe for concurrent use.
func (r *Report) Add(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
	fmt.Fprintln(r.out, o.String())
	if r.observer != nil {
		r.observer(o)
	}
}

// Outcomes returns every outcome in the order it was recorded
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

// Failed returns the failed outcomes
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes() {
		if o.Status == StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Count returns how many outcomes of kind have status
func (r *Report) Count(kind domain.Kind, status Status) int {
	n := 0
	for _, o := range r.Outcomes() {
		if o.Kind == kind && o.Status == status {
			n++
		}
	}
	return n
}

// Summary tallies outcomes per kind
func (r *Report) Summary() Summary {
	counts := make(map[domain.Kind]map[Status]int)
	for _, o := range r.Outcomes() {
		if counts[o.Kind] == nil {
			counts[o.Kind] = make(map[Status]int)
		}
		counts[o.Kind][o.Status]++
	}

	summary := make(Summary, 0, len(domain.Kinds))
	for _, kind := range domain.Kinds {
		c := counts[kind]
		summary = append(summary, KindSummary{
			Kind:      kind,
			Created:   c[StatusCreated],
			Reused:    c[StatusReused],
			Published: c[StatusPublished],
			Linked:    c[StatusLinked],
			Skipped:   c[StatusSkipped],
			Warnings:  c[StatusWarning],
			Failed:    c[StatusFailed],
		})
	}
	return summary
}

// KindSummary holds the outcome counts of one entity kind
type KindSummary struct {
	Kind      domain.Kind `json:"kind" yaml:"kind"`
	Created   int         `json:"created" yaml:"created"`
	Reused    int         `json:"reused" yaml:"reused"`
	Published int         `json:"published" yaml:"published"`
	Linked    int         `json:"linked" yaml:"linked"`
	Skipped   int         `json:"skipped" yaml:"skipped"`
	Warnings  int         `json:"warnings" yaml:"warnings"`
	Failed    int         `json:"failed" yaml:"failed"`
}

// Summary is the per-kind tally of a run
type Summary []KindSummary

// Headers implements render.Tabular
func (s Summary) Headers() []string {
	return []string{"KIND", "CREATED", "REUSED", "PUBLISHED", "LINKED", "SKIPPED", "WARNINGS", "FAILED"}
}

// Rows implements render.Tabular
func (s Summary) Rows() [][]string {
	rows := make([][]string, 0, len(s))
	for _, k := range s {
		rows = append(rows, []string{
			string(k.Kind),
			strconv.Itoa(k.Created),
			strconv.Itoa(k.Reused),
			strconv.Itoa(k.Published),
			strconv.Itoa(k.Linked),
			strconv.Itoa(k.Skipped),
			strconv.Itoa(k.Warnings),
			strconv.Itoa(k.Failed),
		})
	}
	return rows
}

// Failures returns the total number of failed items
func (s Summary) Failures() int {
	n := 0
	for _, k := range s {
		n += k.Failed
	}
	return n
}
