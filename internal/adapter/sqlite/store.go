package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"timetracker/internal/domain"
)

// Store implements ports.EntryStore on an embedded SQLite database.
// Timestamps are kept as RFC3339 text.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func NewStore(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite serialises anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, log: log}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS time_entries (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		duration_sec REAL NOT NULL DEFAULT 0
	)
	`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

const selectColumns = `SELECT id, description, start_time, end_time, duration_sec FROM time_entries`

func (s *Store) List(ctx context.Context) ([]domain.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	out := []domain.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Append(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, description, start_time, end_time, duration_sec) VALUES (?, ?, ?, ?, ?)",
		entry.ID,
		entry.Description,
		formatTime(entry.StartTime),
		formatNullable(entry.EndTime),
		entry.Duration,
	)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("sqlite: insert: %w", err)
	}
	s.log.Debug("sqlite store inserted entry", slog.Int64("id", entry.ID))
	return entry, nil
}

func (s *Store) Replace(ctx context.Context, id int64, patch domain.Patch) (domain.TimeEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	defer tx.Rollback()

	current, err := scanEntry(tx.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TimeEntry{}, domain.ErrNotFound
		}
		return domain.TimeEntry{}, err
	}
	updated, err := patch.Apply(current)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE time_entries SET description = ?, start_time = ?, end_time = ?, duration_sec = ? WHERE id = ?",
		updated.Description,
		formatTime(updated.StartTime),
		formatNullable(updated.EndTime),
		updated.Duration,
		id,
	); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("sqlite: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.TimeEntry{}, err
	}
	s.log.Debug("sqlite store updated entry", slog.Int64("id", id))
	return updated, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.TimeEntry, error) {
	var (
		e         domain.TimeEntry
		startedAt string
		endedAt   sql.NullString
		err       error
	)
	if err := row.Scan(&e.ID, &e.Description, &startedAt, &endedAt, &e.Duration); err != nil {
		return domain.TimeEntry{}, err
	}
	e.StartTime, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("sqlite: entry %d start_time: %w", e.ID, err)
	}
	if endedAt.Valid {
		end, err := time.Parse(time.RFC3339Nano, endedAt.String)
		if err != nil {
			return domain.TimeEntry{}, fmt.Errorf("sqlite: entry %d end_time: %w", e.ID, err)
		}
		e.EndTime = &end
	}
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatNullable(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
