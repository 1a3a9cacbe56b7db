package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"timetracker/internal/domain"
	"timetracker/internal/ports"
)

// NewEntry is the accepted shape of a create request. Any client id is dropped
// before it gets here.
type NewEntry struct {
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
}

// EntryService coordinates id assignment and entry mutation over a store.
type EntryService struct {
	Log   *slog.Logger
	Store ports.EntryStore
	Now   func() time.Time // defaults to time.Now

	mu     sync.Mutex
	lastID int64
}

func (uc *EntryService) List(ctx context.Context) ([]domain.TimeEntry, error) {
	if uc.Store == nil {
		return nil, errors.New("usecase not initialized: missing store")
	}
	entries, err := uc.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	uc.Log.Debug("listed entries", slog.Int("count", len(entries)))
	return entries, nil
}

func (uc *EntryService) Create(ctx context.Context, in NewEntry) (domain.TimeEntry, error) {
	if uc.Store == nil {
		return domain.TimeEntry{}, errors.New("usecase not initialized: missing store")
	}
	now := uc.now()
	e := domain.TimeEntry{
		ID:          uc.nextID(now),
		Description: strings.TrimSpace(in.Description),
		StartTime:   now,
	}
	if in.StartTime != nil {
		e.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		end := *in.EndTime
		e.EndTime = &end
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return domain.TimeEntry{}, err
	}

	stored, err := uc.Store.Append(ctx, e)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("append entry: %w", err)
	}
	uc.Log.Info("entry created", slog.Int64("id", stored.ID), slog.String("description", stored.Description))
	return stored, nil
}

func (uc *EntryService) Update(ctx context.Context, id int64, patch domain.Patch) (domain.TimeEntry, error) {
	if uc.Store == nil {
		return domain.TimeEntry{}, errors.New("usecase not initialized: missing store")
	}
	updated, err := uc.Store.Replace(ctx, id, patch)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	uc.Log.Info("entry updated",
		slog.Int64("id", updated.ID),
		slog.Bool("running", updated.Running()),
		slog.Float64("duration", updated.Duration),
	)
	return updated, nil
}

func (uc *EntryService) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// nextID returns the creation time in milliseconds, bumped past the last id
// handed out so two creates in the same millisecond do not collide.
func (uc *EntryService) nextID(now time.Time) int64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	id := now.UnixMilli()
	if id <= uc.lastID {
		id = uc.lastID + 1
	}
	uc.lastID = id
	return id
}
