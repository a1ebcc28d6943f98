package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnknownSource is returned for a language with no lexicon_sources row.
var ErrUnknownSource = errors.New("unknown lexicon source")

// Source represents a row from the lexicon_sources table.
type Source struct {
	Lang        string
	Description string
	SourceURL   string
	License     string
	LastCheck   *int64
	LastStatus  *int
	LastError   *string
	LastImport  *int64
	UpdatedAt   int64
}

// SourceDB manages the lexicon_sources SQLite table: where the lexicon
// bundle of each language is downloaded from.
type SourceDB struct {
	db *sql.DB
}

// OpenSourceDB opens (or creates) the SQLite database at path and ensures the
// lexicon_sources table exists.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS lexicon_sources (
		lang         TEXT PRIMARY KEY,
		description  TEXT NOT NULL DEFAULT '',
		source_url   TEXT NOT NULL,
		license      TEXT NOT NULL DEFAULT '',
		last_check   INTEGER,
		last_status  INTEGER,
		last_error   TEXT,
		last_import  INTEGER,
		updated_at   INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create lexicon_sources table: %w", err)
	}

	return &SourceDB{db: db}, nil
}

// Close closes the database.
func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts the given rows with INSERT OR IGNORE: existing rows are left
// untouched so that manual URL overrides survive restarts.
func (s *SourceDB) Seed(sources []Source) error {
	const q = `INSERT OR IGNORE INTO lexicon_sources
		(lang, description, source_url, license, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	now := time.Now().Unix()
	for _, src := range sources {
		if src.Lang == "" || src.SourceURL == "" {
			return fmt.Errorf("seed: lang and source url are required")
		}
		if _, err := s.db.Exec(q, src.Lang, src.Description, src.SourceURL, src.License, now); err != nil {
			return fmt.Errorf("seed %s: %w", src.Lang, err)
		}
	}
	return nil
}

// Get returns the row of lang.
func (s *SourceDB) Get(lang string) (Source, error) {
	var src Source
	err := s.db.QueryRow(`SELECT lang, description, source_url, license,
		last_check, last_status, last_error, last_import, updated_at
		FROM lexicon_sources WHERE lang = ?`, lang).Scan(&src.Lang, &src.Description, &src.SourceURL,
		&src.License, &src.LastCheck, &src.LastStatus, &src.LastError, &src.LastImport, &src.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return src, fmt.Errorf("%w: %s", ErrUnknownSource, lang)
	}
	if err != nil {
		return src, fmt.Errorf("get source %s: %w", lang, err)
	}
	return src, nil
}

// SetURL updates the source URL of lang and records the change timestamp.
func (s *SourceDB) SetURL(lang, url string) error {
	res, err := s.db.Exec(
		`UPDATE lexicon_sources SET source_url = ?, updated_at = ? WHERE lang = ?`,
		url, time.Now().Unix(), lang,
	)
	if err != nil {
		return fmt.Errorf("set url for %s: %w", lang, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSource, lang)
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (s *SourceDB) UpdateCheck(lang string, status int, checkErr string) error {
	now := time.Now().Unix()
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	_, err := s.db.Exec(
		`UPDATE lexicon_sources SET last_check = ?, last_status = ?, last_error = ? WHERE lang = ?`,
		now, status, errPtr, lang,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", lang, err)
	}
	return nil
}

// MarkImported records a successful import of lang.
func (s *SourceDB) MarkImported(lang string) error {
	_, err := s.db.Exec(`UPDATE lexicon_sources SET last_import = ? WHERE lang = ?`, time.Now().Unix(), lang)
	if err != nil {
		return fmt.Errorf("mark imported %s: %w", lang, err)
	}
	return nil
}

// ListSources returns all rows from lexicon_sources ordered by lang.
func (s *SourceDB) ListSources() ([]Source, error) {
	rows, err := s.db.Query(`SELECT lang, description, source_url, license,
		last_check, last_status, last_error, last_import, updated_at
		FROM lexicon_sources ORDER BY lang`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.Lang, &src.Description, &src.SourceURL, &src.License,
			&src.LastCheck, &src.LastStatus, &src.LastError, &src.LastImport, &src.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}
