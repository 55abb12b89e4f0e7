// Package store provides SQLite persistence for paperwave: paper snapshots
// by id, plus the preferences and interactions singletons. No business logic
// lives here; every other component hands in copies.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record kinds in the records table.
const (
	recordPreferences  = "preferences"
	recordInteractions = "interactions"
)

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	// Build connection string based on database type
	connStr := dbPath
	if dbPath == ":memory:" {
		// For in-memory databases, use shared cache mode so all connections
		// in the pool see the same database
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// For in-memory databases, limit to 1 connection to avoid issues
	// with multiple connections getting different databases
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	// Enable WAL mode for file-based databases (not :memory:)
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		source_id TEXT,
		title TEXT NOT NULL,
		abstract TEXT,
		authors TEXT,
		categories TEXT,
		published_at DATETIME NOT NULL,
		fetched_at DATETIME NOT NULL,
		translation TEXT DEFAULT '',
		insights TEXT DEFAULT '',
		visualization TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_papers_published ON papers(published_at DESC);
	CREATE INDEX IF NOT EXISTS idx_papers_fetched ON papers(fetched_at);

	CREATE TABLE IF NOT EXISTS records (
		kind TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// PutPapers upserts paper snapshots, last write wins. Returns the number of
// rows stored. AI-derived blobs survive upserts from plain feed rows: an
// incoming empty blob never clears a cached one.
// Thread-safe: acquires write lock.
func (s *Store) PutPapers(papers []Paper) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(papers) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("store: begin transaction: %w", err)
	}
	// Rollback is safe to call even after commit - it's a no-op
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO papers (id, source_id, title, abstract, authors, categories,
			published_at, fetched_at, translation, insights, visualization)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			title = excluded.title,
			abstract = excluded.abstract,
			authors = excluded.authors,
			categories = excluded.categories,
			published_at = excluded.published_at,
			fetched_at = excluded.fetched_at,
			translation = CASE WHEN excluded.translation != '' THEN excluded.translation ELSE translation END,
			insights = CASE WHEN excluded.insights != '' THEN excluded.insights ELSE insights END,
			visualization = CASE WHEN excluded.visualization != '' THEN excluded.visualization ELSE visualization END
	`)
	if err != nil {
		return 0, fmt.Errorf("store: prepare upsert: %w", err)
	}
	defer stmt.Close()

	stored := 0
	for _, p := range papers {
		if p.ID == "" {
			continue
		}
		_, err := stmt.Exec(
			p.ID,
			p.SourceID,
			p.Title,
			p.Abstract,
			serializeStrings(p.Authors),
			serializeStrings(p.Categories),
			p.PublishedAt,
			p.FetchedAt,
			p.Translation,
			p.Insights,
			p.Visualization,
		)
		if err != nil {
			return stored, fmt.Errorf("store: upsert paper %s: %w", p.ID, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}

	return stored, nil
}

// GetPaper retrieves a single paper snapshot. found is false when the id has
// never passed through the store.
// Thread-safe: acquires read lock.
func (s *Store) GetPaper(id string) (Paper, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, source_id, title, abstract, authors, categories,
			published_at, fetched_at, translation, insights, visualization
		FROM papers WHERE id = ?
	`, id)

	p, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return Paper{}, false, nil
	}
	if err != nil {
		return Paper{}, false, fmt.Errorf("store: get paper %s: %w", id, err)
	}
	return p, true, nil
}

// GetPapers is a multi-get by id. Ids without a stored snapshot are simply
// absent from the result; callers needing list order re-sort against their
// own ordering.
// Thread-safe: acquires read lock.
func (s *Store) GetPapers(ids []string) ([]Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT id, source_id, title, abstract, authors, categories,
			published_at, fetched_at, translation, insights, visualization
		FROM papers WHERE id IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("store: multi-get papers: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// CountPapers returns the number of cached paper snapshots.
// Thread-safe: acquires read lock.
func (s *Store) CountPapers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count papers: %w", err)
	}
	return n, nil
}

// PrunePapers deletes snapshots fetched before the cutoff, returning the
// number of rows removed.
// Thread-safe: acquires write lock.
func (s *Store) PrunePapers(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM papers WHERE fetched_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("store: prune papers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// GetPreferences reads the preferences singleton. A missing record yields
// defaults; a record written under an older schema decodes over defaults so
// absent fields keep their default values; an undecodable record falls back
// to pure defaults rather than failing.
// Thread-safe: acquires read lock.
func (s *Store) GetPreferences() (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok, err := s.getRecord(recordPreferences)
	if err != nil {
		return DefaultPreferences(), fmt.Errorf("store: get preferences: %w", err)
	}
	if !ok {
		return DefaultPreferences(), nil
	}

	p := DefaultPreferences()
	if err := json.Unmarshal(payload, &p); err != nil {
		return DefaultPreferences(), nil
	}
	return p, nil
}

// PutPreferences writes the preferences singleton, stamping the current
// schema version.
// Thread-safe: acquires write lock.
func (s *Store) PutPreferences(p Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.SchemaVersion = CurrentSchemaVersion
	return s.putRecord(recordPreferences, p)
}

// GetInteractions reads the interactions singleton with the same tolerant
// decode as GetPreferences. First run yields empty sets.
// Thread-safe: acquires read lock.
func (s *Store) GetInteractions() (InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok, err := s.getRecord(recordInteractions)
	if err != nil {
		return DefaultInteractions(), fmt.Errorf("store: get interactions: %w", err)
	}
	if !ok {
		return DefaultInteractions(), nil
	}

	rec := DefaultInteractions()
	if err := json.Unmarshal(payload, &rec); err != nil {
		return DefaultInteractions(), nil
	}
	return rec, nil
}

// PutInteractions writes the interactions singleton, stamping the current
// schema version.
// Thread-safe: acquires write lock.
func (s *Store) PutInteractions(rec InteractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.SchemaVersion = CurrentSchemaVersion
	return s.putRecord(recordInteractions, rec)
}

// putRecord marshals v and upserts it under kind. Caller must hold s.mu.
func (s *Store) putRecord(kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: marshal %s: %w", kind, err)
	}

	_, err = s.db.Exec(`
		INSERT INTO records (kind, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, kind, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("store: put %s: %w", kind, err)
	}
	return nil
}

// getRecord fetches the raw payload for kind. Caller must hold s.mu (read
// lock is sufficient).
func (s *Store) getRecord(kind string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM records WHERE kind = ?", kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(payload), true, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (Paper, error) {
	var p Paper
	var authors, categories string
	err := row.Scan(
		&p.ID,
		&p.SourceID,
		&p.Title,
		&p.Abstract,
		&authors,
		&categories,
		&p.PublishedAt,
		&p.FetchedAt,
		&p.Translation,
		&p.Insights,
		&p.Visualization,
	)
	if err != nil {
		return Paper{}, err
	}
	p.Authors = deserializeStrings(authors)
	p.Categories = deserializeStrings(categories)
	return p, nil
}

// scanPapers scans all rows into Papers, checking rows.Err.
func scanPapers(rows *sql.Rows) ([]Paper, error) {
	var papers []Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return papers, nil
}

// serializeStrings stores a string slice as JSON text. Empty slices store as
// the empty string to keep rows compact.
func serializeStrings(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return ""
	}
	return string(b)
}

// deserializeStrings is the inverse of serializeStrings. Malformed text
// yields nil rather than an error; these are display fields.
func deserializeStrings(s string) []string {
	if s == "" {
		return nil
	}
	var ss []string
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil
	}
	return ss
}
