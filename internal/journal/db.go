package journal

import (
	"database/sql"
	"embed"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// openDB opens a SQLite database at the given path and applies pragmas
func openDB(dbPath string) (*sql.DB, error) {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Annotate(err, "creating journal directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Annotate(err, "opening journal")
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Annotatef(err, "applying %q", pragma)
		}
	}

	return db, nil
}

// migrationNames returns the embedded migration files in apply order
func migrationNames() ([]string, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, errors.Annotate(err, "reading migrations directory")
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// migrate applies pending migrations and returns the ones it applied
func migrate(db *sql.DB) ([]string, error) {
	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
		)
	`)
	if err != nil {
		return nil, errors.Annotate(err, "creating schema_migrations table")
	}

	var applied []string
	for _, name := range names {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", name).Scan(&count)
		if err != nil {
			return applied, errors.Annotatef(err, "checking migration %s", name)
		}
		if count > 0 {
			continue
		}

		// embed paths always use forward slashes
		content, err := migrationsFS.ReadFile(path.Join("migrations", name))
		if err != nil {
			return applied, errors.Annotatef(err, "reading migration %s", name)
		}

		tx, err := db.Begin()
		if err != nil {
			return applied, errors.Annotatef(err, "beginning migration %s", name)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return applied, errors.Annotatef(err, "executing migration %s", name)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", name); err != nil {
			tx.Rollback()
			return applied, errors.Annotatef(err, "recording migration %s", name)
		}
		if err := tx.Commit(); err != nil {
			return applied, errors.Annotatef(err, "committing migration %s", name)
		}
		applied = append(applied, name)
	}

	return applied, nil
}
