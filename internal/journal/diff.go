package journal

import (
	"context"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Line renders an entry without its destination id, so the same item lines
// up across runs even when it was created anew
func (e Entry) Line() string {
	line := fmt.Sprintf("%s %s %q %s", e.Phase, e.Kind, e.Key, e.Status)
	if e.Message != "" {
		line += " (" + e.Message + ")"
	}
	return line
}

// Diff returns a unified diff of the outcome lines of two runs. An empty
// string means both runs did the same thing.
func (j *Journal) Diff(ctx context.Context, fromRef, toRef string) (string, error) {
	from, err := j.GetRun(ctx, fromRef)
	if err != nil {
		return "", err
	}
	to, err := j.GetRun(ctx, toRef)
	if err != nil {
		return "", err
	}

	fromLines, err := j.lines(ctx, from.ID)
	if err != nil {
		return "", err
	}
	toLines, err := j.lines(ctx, to.ID)
	if err != nil {
		return "", err
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: "run " + from.ID,
		ToFile:   "run " + to.ID,
		Context:  1,
	})
}

func (j *Journal) lines(ctx context.Context, runID string) ([]string, error) {
	entries, err := j.Entries(ctx, runID)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Line()+"\n")
	}
	return lines, nil
}
