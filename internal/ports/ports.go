package ports

import (
	"context"

	"timetracker/internal/domain"
)

// EntryStore owns the canonical list of time entries.
// Implementations return domain.ErrNotFound from Replace when id is unknown
// and must leave the stored collection untouched in that case.
type EntryStore interface {
	List(ctx context.Context) ([]domain.TimeEntry, error)
	Append(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error)
	Replace(ctx context.Context, id int64, patch domain.Patch) (domain.TimeEntry, error)
}
