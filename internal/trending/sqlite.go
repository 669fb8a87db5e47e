package trending

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/marquee/internal/tmdb"
)

// SQLiteStore keeps trending counters in a local SQLite database.
// All methods are safe for concurrent use.
type SQLiteStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	limit int
	now   func() time.Time
}

var memSeq atomic.Uint64

// OpenSQLite opens (or creates) the database at dbPath. ":memory:" gives
// a private in-memory database. limit <= 0 means DefaultLimit.
func OpenSQLite(dbPath string, limit int) (*SQLiteStore, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Named shared cache: pooled connections see one database, and
		// separate opens never see each other.
		connStr = fmt.Sprintf("file:marquee-mem-%d?mode=memory&cache=shared", memSeq.Add(1))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &SQLiteStore{db: db, limit: limit, now: time.Now}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS trending (
		movie_id INTEGER PRIMARY KEY,
		search_term TEXT NOT NULL,
		title TEXT NOT NULL,
		poster_url TEXT NOT NULL DEFAULT '',
		count INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trending_count ON trending(count DESC, updated_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Record bumps the counter for movie, inserting it with count 1 if new.
// The stored search term follows the latest query.
func (s *SQLiteStore) Record(ctx context.Context, query string, movie tmdb.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entryFor(query, movie)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trending (movie_id, search_term, title, poster_url, count, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(movie_id) DO UPDATE SET
			count = count + 1,
			search_term = excluded.search_term,
			updated_at = excluded.updated_at
	`, e.MovieID, e.SearchTerm, e.Title, e.PosterURL, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("record movie %d: %w", movie.ID, err)
	}
	return nil
}

// List returns up to the configured limit of entries, most counted first.
// Ties go to the most recently bumped entry.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT movie_id, search_term, title, poster_url, count
		FROM trending
		ORDER BY count DESC, updated_at DESC
		LIMIT ?
	`, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list trending: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.MovieID, &e.SearchTerm, &e.Title, &e.PosterURL, &e.Count); err != nil {
			return nil, fmt.Errorf("scan trending: %w", err)
		}
		e.ID = strconv.FormatInt(e.MovieID, 10)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
