package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"echodl/internal/config"
)

// Status is the recorded result of one lecture download.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Entry is one recorded download attempt.
type Entry struct {
	ID          int64
	RunID       string
	Course      string
	LectureID   string
	Title       string
	LectureDate string
	Status      Status
	Path        string
	Bytes       int64
	Reason      string
	RecordedAt  time.Time
}

const table = "downloads"

var columns = []string{
	"id", "run_id", "course", "lecture_id", "title", "lecture_date",
	"status", "path", "bytes", "reason", "recorded_at",
}

// Store persists download outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.HistoryPath())
}

// OpenPath opens the database at dbPath, creating the schema when needed.
func OpenPath(dbPath string) (*Store, error) {
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

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends entry. A zero RecordedAt is replaced with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	query, args, err := sq.Insert(table).
		Columns("run_id", "course", "lecture_id", "title", "lecture_date", "status", "path", "bytes", "reason", "recorded_at").
		Values(
			entry.RunID,
			entry.Course,
			entry.LectureID,
			entry.Title,
			entry.LectureDate,
			string(entry.Status),
			nullableString(entry.Path),
			entry.Bytes,
			nullableString(entry.Reason),
			entry.RecordedAt.UTC().Format(time.RFC3339Nano),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	return nil
}

// LastSuccess returns the most recent successful download of a lecture.
func (s *Store) LastSuccess(ctx context.Context, course, lectureID string) (Entry, bool, error) {
	query, args, err := sq.Select(columns...).
		From(table).
		Where(sq.Eq{"course": course, "lecture_id": lectureID, "status": string(StatusSuccess)}).
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return Entry{}, false, fmt.Errorf("build select: %w", err)
	}
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// List returns recorded entries, newest first. An empty course lists every
// course; limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, course string, limit int) ([]Entry, error) {
	builder := sq.Select(columns...).From(table).OrderBy("id DESC")
	if course != "" {
		builder = builder.Where(sq.Eq{"course": course})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate downloads: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry      Entry
		status     string
		path       sql.NullString
		reason     sql.NullString
		recordedAt string
	)
	if err := row.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Course,
		&entry.LectureID,
		&entry.Title,
		&entry.LectureDate,
		&status,
		&path,
		&entry.Bytes,
		&reason,
		&recordedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, err
		}
		return Entry{}, fmt.Errorf("scan download: %w", err)
	}
	entry.Status = Status(status)
	entry.Path = path.String
	entry.Reason = reason.String
	if parsed, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
		entry.RecordedAt = parsed
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
