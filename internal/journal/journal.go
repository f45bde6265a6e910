// Package journal keeps an audit trail of migration runs in SQLite. It is
// write-mostly: runs append their outcomes, and the report command reads
// them back. Nothing in a run consults the journal to decide identities.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Run states
const (
	RunRunning     = "running"
	RunCompleted   = "completed"
	RunInterrupted = "interrupted"
	RunFailed      = "failed"
)

const timeLayout = time.RFC3339

// Run is one recorded migration run
type Run struct {
	ID             string    `json:"id" yaml:"id"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status         string    `json:"status" yaml:"status"`
	SourceAPI      string    `json:"source_api" yaml:"source_api"`
	DestinationAPI string    `json:"destination_api" yaml:"destination_api"`
	Outcomes       int       `json:"outcomes" yaml:"outcomes"`
	Failed         int       `json:"failed" yaml:"failed"`
	Error          string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Entry is one recorded outcome
type Entry struct {
	Seq     int    `json:"seq" yaml:"seq"`
	Phase   string `json:"phase" yaml:"phase"`
	Kind    string `json:"kind" yaml:"kind"`
	Key     string `json:"key" yaml:"key"`
	DestID  string `json:"dest_id,omitempty" yaml:"dest_id,omitempty"`
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Journal is an open run journal
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal at path and brings its
// schema up to date
func Open(path string) (*Journal, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if _, err := migrate(db); err != nil {
		db.Close()
		return nil, errors.Annotatef(err, "migrating journal %s", path)
	}
	return &Journal{db: db, path: path}, nil
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Close closes the journal
func (j *Journal) Close() error {
	return j.db.Close()
}

// BeginRun records the start of a run and returns its id
func (j *Journal) BeginRun(ctx context.Context, sourceAPI, destinationAPI string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, source_api, destination_api) VALUES (?, ?, ?, ?, ?)`,
		id, now(), RunRunning, sourceAPI, destinationAPI)
	if err != nil {
		return "", errors.Annotate(err, "recording run start")
	}
	return id, nil
}

// Append records the next outcome of a run
func (j *Journal) Append(ctx context.Context, runID string, e Entry) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, seq, phase, kind, natural_key, dest_id, status, message, error, recorded_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM outcomes WHERE run_id = ?), ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, runID, e.Phase, e.Kind, e.Key, e.DestID, e.Status, e.Message, e.Error, now())
	if err != nil {
		return errors.Annotatef(err, "recording outcome for run %s", runID)
	}
	return nil
}

// FinishRun records how a run ended
func (j *Journal) FinishRun(ctx context.Context, runID, status string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := j.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			status = ?,
			error = ?,
			outcomes = (SELECT COUNT(*) FROM outcomes WHERE run_id = ?),
			failed = (SELECT COUNT(*) FROM outcomes WHERE run_id = ? AND status = 'failed')
		WHERE id = ?`,
		now(), status, msg, runID, runID, runID)
	if err != nil {
		return errors.Annotatef(err, "recording end of run %s", runID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFoundf("run %s", runID)
	}
	return nil
}

const runColumns = `id, started_at, COALESCE(finished_at, ''), status, source_api, destination_api, outcomes, failed, error`

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Annotate(err, "listing runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, errors.Trace(rows.Err())
}

// GetRun returns the run whose id is ref or starts with ref
func (j *Journal) GetRun(ctx context.Context, ref string) (Run, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Run{}, errors.NewNotValid(nil, "missing run id")
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR substr(id, 1, ?) = ? LIMIT 2`,
		ref, len(ref), ref)
	if err != nil {
		return Run{}, errors.Annotatef(err, "looking up run %s", ref)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		matches = append(matches, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, errors.Trace(err)
	}

	switch len(matches) {
	case 0:
		return Run{}, errors.NotFoundf("run %q", ref)
	case 1:
		return matches[0], nil
	default:
		return Run{}, errors.NewNotValid(nil, fmt.Sprintf("run id %q matches more than one run", ref))
	}
}

// Latest returns the most recent run
func (j *Journal) Latest(ctx context.Context) (Run, error) {
	runs, err := j.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, errors.NotFoundf("any recorded run")
	}
	return runs[0], nil
}

// Entries returns the outcomes of a run in the order they were recorded
func (j *Journal) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, phase, kind, natural_key, dest_id, status, message, error
		FROM outcomes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, errors.Annotatef(err, "reading outcomes of run %s", runID)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Phase, &e.Kind, &e.Key, &e.DestID, &e.Status, &e.Message, &e.Error); err != nil {
			return nil, errors.Annotate(err, "scanning outcome")
		}
		entries = append(entries, e)
	}
	return entries, errors.Trace(rows.Err())
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	if err := s.Scan(&r.ID, &started, &finished, &r.Status, &r.SourceAPI, &r.DestinationAPI, &r.Outcomes, &r.Failed, &r.Error); err != nil {
		return Run{}, errors.Annotate(err, "scanning run")
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
	}
	return r, nil
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}
