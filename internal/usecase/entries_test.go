package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"timetracker/internal/domain"
)

type memStore struct{ entries []domain.TimeEntry }

func (m *memStore) List(ctx context.Context) ([]domain.TimeEntry, error) {
	return append([]domain.TimeEntry{}, m.entries...), nil
}

func (m *memStore) Append(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error) {
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memStore) Replace(ctx context.Context, id int64, p domain.Patch) (domain.TimeEntry, error) {
	for i, e := range m.entries {
		if e.ID == id {
			u, err := p.Apply(e)
			if err != nil {
				return domain.TimeEntry{}, err
			}
			m.entries[i] = u
			return u, nil
		}
	}
	return domain.TimeEntry{}, domain.ErrNotFound
}

func newService(now time.Time) (*EntryService, *memStore) {
	store := &memStore{}
	return &EntryService{
		Log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store: store,
		Now:   func() time.Time { return now },
	}, store
}

func TestEntryService_Create_AssignsClockIDAndRunningShape(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	uc, store := newService(now)

	got, err := uc.Create(context.Background(), NewEntry{Description: "  Write report "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID != now.UnixMilli() {
		t.Fatalf("expected id %d, got %d", now.UnixMilli(), got.ID)
	}
	if got.Description != "Write report" || !got.StartTime.Equal(now) || got.EndTime != nil || got.Duration != 0 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if len(store.entries) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(store.entries))
	}
}

func TestEntryService_Create_IDsStrictlyIncrease(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	uc, _ := newService(now)
	ctx := context.Background()

	a, err := uc.Create(ctx, NewEntry{Description: "A"})
	if err != nil {
		t.Fatalf("Create A: %v", err)
	}
	b, err := uc.Create(ctx, NewEntry{Description: "B"})
	if err != nil {
		t.Fatalf("Create B: %v", err)
	}
	if b.ID <= a.ID {
		t.Fatalf("expected increasing ids, got %d then %d", a.ID, b.ID)
	}
}

func TestEntryService_Create_RejectsBlankDescription(t *testing.T) {
	uc, store := newService(time.Now())
	_, err := uc.Create(context.Background(), NewEntry{Description: "   "})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("invalid entry was stored")
	}
}

func TestEntryService_Create_KeepsClientStartTime(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	start := now.Add(-time.Minute)
	uc, _ := newService(now)

	got, err := uc.Create(context.Background(), NewEntry{Description: "x", StartTime: &start})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !got.StartTime.Equal(start) {
		t.Fatalf("expected start %v, got %v", start, got.StartTime)
	}
}

func TestEntryService_Update_StopAndNotFound(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	uc, store := newService(now)
	ctx := context.Background()

	created, err := uc.Create(ctx, NewEntry{Description: "Write report"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	end := now.Add(5 * time.Second)
	got, err := uc.Update(ctx, created.ID, domain.Patch{EndTimeSet: true, EndTime: &end})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Duration != 5 {
		t.Fatalf("expected duration 5, got %v", got.Duration)
	}

	if _, err := uc.Update(ctx, created.ID+1000, domain.Patch{EndTimeSet: true, EndTime: &end}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.entries) != 1 || store.entries[0].Duration != 5 {
		t.Fatalf("collection changed unexpectedly: %+v", store.entries)
	}
}
