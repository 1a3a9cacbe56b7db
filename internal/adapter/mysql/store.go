package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"timetracker/internal/domain"
)

// Store implements ports.EntryStore on a MySQL table.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens a MySQL connection pool using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewStore wraps an open pool. The schema must already be migrated.
func NewStore(db *sql.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

const selectColumns = `SELECT id, description, start_time, end_time, duration_sec FROM time_entries`

func (s *Store) List(ctx context.Context) ([]domain.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("mysql: list: %w", err)
	}
	defer rows.Close()

	out := []domain.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("mysql: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Append(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	const q = `
INSERT INTO time_entries
  (id, description, start_time, end_time, duration_sec)
VALUES
  (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		entry.ID,
		entry.Description,
		entry.StartTime.UTC(),
		nullableTime(entry.EndTime),
		entry.Duration,
	); err != nil {
		return domain.TimeEntry{}, fmt.Errorf("mysql: insert: %w", err)
	}
	s.log.Info("mysql store inserted entry", slog.Int64("id", entry.ID))
	return entry, nil
}

func (s *Store) Replace(ctx context.Context, id int64, patch domain.Patch) (domain.TimeEntry, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return domain.TimeEntry{}, err
	}
	current, err := scanEntry(tx.QueryRowContext(ctx, selectColumns+` WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return domain.TimeEntry{}, domain.ErrNotFound
		}
		return domain.TimeEntry{}, fmt.Errorf("mysql: select: %w", err)
	}
	updated, err := patch.Apply(current)
	if err != nil {
		tx.Rollback()
		return domain.TimeEntry{}, err
	}
	const q = `
UPDATE time_entries SET
  description=?,
  start_time=?,
  end_time=?,
  duration_sec=?
WHERE id=?`
	if _, err := tx.ExecContext(ctx, q,
		updated.Description,
		updated.StartTime.UTC(),
		nullableTime(updated.EndTime),
		updated.Duration,
		id,
	); err != nil {
		tx.Rollback()
		return domain.TimeEntry{}, fmt.Errorf("mysql: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.TimeEntry{}, err
	}
	s.log.Info("mysql store updated entry", slog.Int64("id", id))
	return updated, nil
}

// Close closes the underlying DB. Not part of ports.EntryStore.
func (s *Store) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.TimeEntry, error) {
	var (
		e   domain.TimeEntry
		end sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.Description, &e.StartTime, &end, &e.Duration); err != nil {
		return domain.TimeEntry{}, err
	}
	if end.Valid {
		t := end.Time
		e.EndTime = &t
	}
	return e, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
