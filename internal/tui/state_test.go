package tui

import (
	"reflect"
	"testing"
	"time"

	"timetracker/internal/domain"
)

func entry(id int64, desc string, start time.Time, dur float64) domain.TimeEntry {
	end := start.Add(time.Duration(dur * float64(time.Second)))
	return domain.TimeEntry{ID: id, Description: desc, StartTime: start, EndTime: &end, Duration: dur}
}

func TestFilter_DateAndTask(t *testing.T) {
	today := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	entries := []domain.TimeEntry{
		entry(1, "A", today, 60),
		entry(2, "B", yesterday, 60),
		entry(3, "Write Report", today, 30),
	}

	cases := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"none", Filter{Loc: time.UTC}, []int64{1, 2, 3}},
		{"date", Filter{Date: "2025-08-01", Loc: time.UTC}, []int64{1, 3}},
		{"task case-insensitive", Filter{Task: "report", Loc: time.UTC}, []int64{3}},
		{"both", Filter{Date: "2025-08-01", Task: "B", Loc: time.UTC}, nil},
		{"yesterday", Filter{Date: "2025-07-31", Task: "b", Loc: time.UTC}, []int64{2}},
		{"unparseable date ignored", Filter{Date: "2025-08", Loc: time.UTC}, []int64{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []int64
			for _, e := range tc.filter.Apply(entries) {
				got = append(got, e.ID)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilter_DateUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	e := entry(1, "late", time.Date(2025, 8, 1, 23, 0, 0, 0, time.UTC), 10)
	if !(Filter{Date: "2025-08-02", Loc: loc}).Match(e) {
		t.Fatalf("expected entry to fall on the next local day")
	}
	if (Filter{Date: "2025-08-01", Loc: loc}).Match(e) {
		t.Fatalf("expected UTC date not to match")
	}
}

func TestKnownDescriptions(t *testing.T) {
	now := time.Now()
	got := KnownDescriptions([]domain.TimeEntry{
		entry(1, "review", now, 1),
		entry(2, "email", now, 1),
		entry(3, "review", now, 1),
	})
	if want := []string{"email", "review"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTotalSeconds(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	entries := []domain.TimeEntry{
		entry(1, "a", now.Add(-time.Hour), 90),
		{ID: 2, Description: "b", StartTime: now.Add(-30 * time.Second)},
	}
	if got := TotalSeconds(entries, now); got != 120 {
		t.Fatalf("got %v, want 120", got)
	}
}

func TestReduce_StartStop(t *testing.T) {
	t0 := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	var s State

	if _, eff := Reduce(s, StartRequested{At: t0}); eff != nil {
		t.Fatalf("start with blank description must be a no-op, got %#v", eff)
	}

	s, _ = Reduce(s, DescriptionChanged{Text: "  Write report "})
	if !s.CanStart() || s.CanStop() {
		t.Fatalf("expected start enabled, stop disabled")
	}

	s, eff := Reduce(s, StartRequested{At: t0})
	create, ok := eff.(CreateEffect)
	if !ok {
		t.Fatalf("expected CreateEffect, got %#v", eff)
	}
	if create.Entry.ID != t0.UnixMilli() || create.Entry.Description != "Write report" || create.Entry.EndTime != nil {
		t.Fatalf("unexpected entry: %+v", create.Entry)
	}
	if !s.Busy || s.CanStart() {
		t.Fatalf("expected busy after start request")
	}

	s, eff = Reduce(s, EntryStarted{Entry: create.Entry})
	if _, ok := eff.(LoadEffect); !ok {
		t.Fatalf("expected LoadEffect after start, got %#v", eff)
	}
	if s.Current == nil || s.Description != "" || s.Busy {
		t.Fatalf("unexpected state after start: %+v", s)
	}
	if !s.CanStop() || s.CanStart() {
		t.Fatalf("expected stop enabled, start disabled")
	}

	s, _ = Reduce(s, Tick{Now: t0.Add(3 * time.Second)})
	if s.Elapsed() != 3 {
		t.Fatalf("elapsed = %v", s.Elapsed())
	}

	s, eff = Reduce(s, StopRequested{At: t0.Add(5 * time.Second)})
	upd, ok := eff.(UpdateEffect)
	if !ok {
		t.Fatalf("expected UpdateEffect, got %#v", eff)
	}
	if upd.Entry.EndTime == nil || upd.Entry.Duration != 5 || upd.Entry.ID != create.Entry.ID {
		t.Fatalf("unexpected completed entry: %+v", upd.Entry)
	}
	if s.Current == nil {
		t.Fatalf("current must stay until the server confirms")
	}

	s, eff = Reduce(s, EntryStopped{Entry: upd.Entry})
	if _, ok := eff.(LoadEffect); !ok {
		t.Fatalf("expected LoadEffect after stop, got %#v", eff)
	}
	if s.Current != nil || s.Busy {
		t.Fatalf("unexpected state after stop: %+v", s)
	}
}

func TestReduce_StopBeforeStartClamps(t *testing.T) {
	t0 := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	s := State{Current: &domain.TimeEntry{ID: 1, Description: "x", StartTime: t0}}
	_, eff := Reduce(s, StopRequested{At: t0.Add(-time.Minute)})
	upd := eff.(UpdateEffect)
	if !upd.Entry.EndTime.Equal(t0) || upd.Entry.Duration != 0 {
		t.Fatalf("expected clamped end, got %+v", upd.Entry)
	}
}

func TestReduce_Failures(t *testing.T) {
	cur := &domain.TimeEntry{ID: 1, Description: "x", StartTime: time.Now()}

	s, _ := Reduce(State{Busy: true, Description: "x"}, RequestFailed{Op: OpStart})
	if s.Err != "Failed to start timer" || s.Busy || s.Current != nil || s.Description != "x" {
		t.Fatalf("unexpected state after failed start: %+v", s)
	}

	s, _ = Reduce(State{Busy: true, Current: cur}, RequestFailed{Op: OpStop})
	if s.Err != "Failed to stop timer" || s.Busy || s.Current == nil {
		t.Fatalf("unexpected state after failed stop: %+v", s)
	}

	s, _ = Reduce(State{Busy: true}, RequestFailed{Op: OpLoad})
	if s.Err != "Failed to load entries" || !s.Busy {
		t.Fatalf("load failure must not touch an in-flight request: %+v", s)
	}

	s, _ = Reduce(s, EntriesLoaded{})
	if s.Err != "" {
		t.Fatalf("expected banner cleared by a successful load")
	}
}

func TestReduce_Reconcile(t *testing.T) {
	start := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	restored := &domain.TimeEntry{ID: 7, Description: "cached", StartTime: start}

	cases := []struct {
		name     string
		entries  []domain.TimeEntry
		wantKeep bool
	}{
		{"unknown id", []domain.TimeEntry{entry(1, "other", start, 5)}, false},
		{"stopped on server", []domain.TimeEntry{entry(7, "cached", start, 5)}, false},
		{"still running", []domain.TimeEntry{{ID: 7, Description: "server copy", StartTime: start}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := Reduce(State{}, SessionRestored{Entry: restored})
			if s.Current == nil {
				t.Fatalf("expected restored current entry")
			}
			s, _ = Reduce(s, EntriesLoaded{Entries: tc.entries})
			if (s.Current != nil) != tc.wantKeep {
				t.Fatalf("current = %+v, want kept=%v", s.Current, tc.wantKeep)
			}
			if tc.wantKeep && s.Current.Description != "server copy" {
				t.Fatalf("expected server copy to be adopted")
			}
			if !s.Reconciled {
				t.Fatalf("expected reconciled")
			}

			// Later snapshots leave the current entry alone.
			s.Current = restored
			s, _ = Reduce(s, EntriesLoaded{})
			if s.Current == nil {
				t.Fatalf("reconcile must only run once")
			}
		})
	}
}

func TestReduce_StartedBeforeFirstLoadIsKept(t *testing.T) {
	e := domain.TimeEntry{ID: 9, Description: "new", StartTime: time.Now()}
	s, _ := Reduce(State{}, EntryStarted{Entry: e})
	s, _ = Reduce(s, EntriesLoaded{})
	if s.Current == nil || s.Current.ID != 9 {
		t.Fatalf("expected started entry to survive a stale snapshot, got %+v", s.Current)
	}
}

func TestReduce_SessionRestoredIgnoresStopped(t *testing.T) {
	e := entry(1, "done", time.Now(), 5)
	s, _ := Reduce(State{}, SessionRestored{Entry: &e})
	if s.Current != nil {
		t.Fatalf("stopped entry must not be restored")
	}
	s, _ = Reduce(State{}, SessionRestored{})
	if s.Current != nil {
		t.Fatalf("nil entry must not be restored")
	}
}

func TestReduce_DoesNotAliasEntries(t *testing.T) {
	in := []domain.TimeEntry{entry(1, "a", time.Now(), 1)}
	s, _ := Reduce(State{}, EntriesLoaded{Entries: in})
	in[0].Description = "changed"
	if s.Entries[0].Description != "a" {
		t.Fatalf("state shares the caller's slice")
	}
}
