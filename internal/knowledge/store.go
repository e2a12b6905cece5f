package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lectern/internal/config"
	"lectern/internal/lecture"
	"lectern/internal/services"
	"lectern/internal/textutil"
)

// Term sources.
const (
	SourceLearned = "learned"
	SourceManual  = "manual"
)

// Store manages the term database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ lecture.KnowledgeBase = (*Store)(nil)

// Term is one stored entry.
type Term struct {
	Term        string    `json:"term"`
	Source      string    `json:"source"`
	Occurrences int       `json:"occurrences"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the knowledge database at
// cfg.Paths.KnowledgeBase.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	dbPath := strings.TrimSpace(cfg.Paths.KnowledgeBase)
	if dbPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "knowledge", "open", "paths.knowledge_base is empty", nil)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: func() time.Time { return time.Now().UTC() }}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Lookup reports whether term is known.
func (s *Store) Lookup(ctx context.Context, term string) (bool, error) {
	key := textutil.Normalize(term)
	if key == "" {
		return false, nil
	}
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM terms WHERE term = ?", key).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("lookup term: %w", err)
	}
	return count > 0, nil
}

// Record marks term as seen once more, creating it when new.
func (s *Store) Record(ctx context.Context, term string) error {
	return s.upsert(ctx, term, SourceLearned, 1)
}

// Add inserts a manually curated term. Existing terms keep their counts and
// become manual.
func (s *Store) Add(ctx context.Context, term string) error {
	return s.upsert(ctx, term, SourceManual, 0)
}

func (s *Store) upsert(ctx context.Context, term, source string, increment int) error {
	key := textutil.Normalize(term)
	if key == "" {
		return services.Wrap(services.ErrValidation, "knowledge", "record", "empty term", nil)
	}
	stamp := s.now().Format(time.RFC3339Nano)
	query := `INSERT INTO terms (term, display, source, occurrences, first_seen, last_seen)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(term) DO UPDATE SET
            occurrences = occurrences + excluded.occurrences,
            last_seen = excluded.last_seen`
	if source == SourceManual {
		query += `, source = excluded.source`
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, key, strings.Join(strings.Fields(term), " "), source, increment, stamp, stamp)
		return err
	})
}

// List returns stored terms, most frequent first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Term, error) {
	query := `SELECT display, source, occurrences, first_seen, last_seen
        FROM terms ORDER BY occurrences DESC, term ASC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var out []Term
	for rows.Next() {
		var (
			t                 Term
			firstSeen, latest string
		)
		if err := rows.Scan(&t.Term, &t.Source, &t.Occurrences, &firstSeen, &latest); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		t.FirstSeen = parseTime(firstSeen)
		t.LastSeen = parseTime(latest)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return out, nil
}

// Remove deletes term. Removing an unknown term returns services.ErrNotFound.
func (s *Store) Remove(ctx context.Context, term string) error {
	key := textutil.Normalize(term)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, "DELETE FROM terms WHERE term = ?", key)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("remove term: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "knowledge", "remove", fmt.Sprintf("term %q", term), nil)
	}
	return nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
