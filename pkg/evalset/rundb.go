package evalset

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/cardinal-itn/pkg/cardinal"
)

// RunRecord is a row of the eval_runs table.
type RunRecord struct {
	ID        string
	Lang      string
	Input     string
	Total     int
	Correct   int
	StartedAt time.Time
	Duration  time.Duration
}

// Accuracy returns Correct/Total.
func (r RunRecord) Accuracy() float64 {
	return ClassStats{Total: r.Total, Correct: r.Correct}.Accuracy()
}

// RunDB keeps the history of evaluation runs in SQLite so accuracy can be
// tracked across lexicon versions.
type RunDB struct {
	db *sql.DB
}

// OpenRunDB opens (or creates) the database at path.
func OpenRunDB(path string) (*RunDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open run db: %w", err)
	}

	const ddl = `
	CREATE TABLE IF NOT EXISTS eval_runs (
		id          TEXT PRIMARY KEY,
		lang        TEXT NOT NULL,
		input       TEXT NOT NULL,
		total       INTEGER NOT NULL,
		correct     INTEGER NOT NULL,
		started_at  INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS eval_classes (
		run_id  TEXT NOT NULL REFERENCES eval_runs(id) ON DELETE CASCADE,
		class   TEXT NOT NULL,
		total   INTEGER NOT NULL,
		correct INTEGER NOT NULL,
		PRIMARY KEY (run_id, class)
	);
	CREATE TABLE IF NOT EXISTS eval_failures (
		run_id  TEXT NOT NULL REFERENCES eval_runs(id) ON DELETE CASCADE,
		line    INTEGER NOT NULL,
		class   TEXT NOT NULL,
		spoken  TEXT NOT NULL,
		written TEXT NOT NULL,
		got     TEXT NOT NULL,
		status  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_eval_runs_lang ON eval_runs(lang, started_at);`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create eval tables: %w", err)
	}
	return &RunDB{db: db}, nil
}

// Close closes the database.
func (d *RunDB) Close() error {
	return d.db.Close()
}

// Record stores a report and returns the new run ID.
func (d *RunDB) Record(ctx context.Context, lang, input string, started time.Time, elapsed time.Duration, report *Report) (string, error) {
	id := uuid.NewString()
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO eval_runs (id, lang, input, total, correct, started_at, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, lang, input, report.Overall.Total, report.Overall.Correct, started.Unix(), elapsed.Milliseconds(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for _, class := range report.ClassNames() {
		s := report.Classes[class]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO eval_classes (run_id, class, total, correct) VALUES (?, ?, ?, ?)`,
			id, class, s.Total, s.Correct,
		); err != nil {
			return "", fmt.Errorf("insert class %s: %w", class, err)
		}
	}
	for _, f := range report.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO eval_failures (run_id, line, class, spoken, written, got, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, f.Line, f.Class, f.Spoken, f.Written, f.Got, f.Status.String(),
		); err != nil {
			return "", fmt.Errorf("insert failure line %d: %w", f.Line, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// Runs returns the latest runs of lang, newest first. An empty lang lists
// every language.
func (d *RunDB) Runs(ctx context.Context, lang string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `SELECT id, lang, input, total, correct, started_at, duration_ms
		FROM eval_runs WHERE ? = '' OR lang = ?
		ORDER BY started_at DESC, rowid DESC LIMIT ?`, lang, lang, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, ms int64
		if err := rows.Scan(&r.ID, &r.Lang, &r.Input, &r.Total, &r.Correct, &started, &ms); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(started, 0)
		r.Duration = time.Duration(ms) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Failures returns the failed cases of a run in input order.
func (d *RunDB) Failures(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT line, class, spoken, written, got, status
		FROM eval_failures WHERE run_id = ? ORDER BY line`, runID)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		var status string
		if err := rows.Scan(&f.Line, &f.Class, &f.Spoken, &f.Written, &f.Got, &status); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Status = parseStatus(status)
		out = append(out, f)
	}
	return out, rows.Err()
}

func parseStatus(s string) cardinal.Status {
	for _, st := range []cardinal.Status{cardinal.NoMatch, cardinal.Match, cardinal.Ambiguous} {
		if st.String() == s {
			return st
		}
	}
	return cardinal.NoMatch
}
