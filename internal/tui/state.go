package tui

import (
	"sort"
	"strings"
	"time"

	"timetracker/internal/domain"
)

const dateLayout = "2006-01-02"

// Filter narrows the entry list. Both constraints combine with AND; an empty
// or unparseable date and an empty task impose nothing.
type Filter struct {
	Date string // YYYY-MM-DD, compared against the start in Loc
	Task string // case-insensitive substring of the description
	Loc  *time.Location
}

func (f Filter) Match(e domain.TimeEntry) bool {
	if f.dateActive() {
		loc := f.Loc
		if loc == nil {
			loc = time.Local
		}
		if e.StartTime.In(loc).Format(dateLayout) != f.Date {
			return false
		}
	}
	if task := strings.TrimSpace(f.Task); task != "" {
		if !strings.Contains(strings.ToLower(e.Description), strings.ToLower(task)) {
			return false
		}
	}
	return true
}

func (f Filter) dateActive() bool {
	if f.Date == "" {
		return false
	}
	_, err := time.Parse(dateLayout, f.Date)
	return err == nil
}

// Apply returns the matching entries in their original order.
func (f Filter) Apply(entries []domain.TimeEntry) []domain.TimeEntry {
	out := make([]domain.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// KnownDescriptions returns the distinct descriptions, sorted.
func KnownDescriptions(entries []domain.TimeEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Description]; ok || e.Description == "" {
			continue
		}
		seen[e.Description] = struct{}{}
		out = append(out, e.Description)
	}
	sort.Strings(out)
	return out
}

// TotalSeconds sums durations; running entries count time elapsed until now.
func TotalSeconds(entries []domain.TimeEntry, now time.Time) float64 {
	var total float64
	for _, e := range entries {
		if e.Running() {
			if d := now.Sub(e.StartTime).Seconds(); d > 0 {
				total += d
			}
			continue
		}
		total += e.Duration
	}
	return total
}

// Op names the request a failure belongs to.
type Op int

const (
	OpLoad Op = iota
	OpStart
	OpStop
)

func (o Op) message() string {
	switch o {
	case OpStart:
		return "Failed to start timer"
	case OpStop:
		return "Failed to stop timer"
	default:
		return "Failed to load entries"
	}
}

// State is the whole UI state. It is only changed through Reduce.
type State struct {
	Entries     []domain.TimeEntry
	Current     *domain.TimeEntry
	Description string
	Filter      Filter
	Err         string
	Busy        bool
	Now         time.Time
	// Reconciled is set once the restored current entry was checked against
	// the first server snapshot.
	Reconciled bool
}

func (s State) CanStart() bool {
	return s.Current == nil && !s.Busy && strings.TrimSpace(s.Description) != ""
}

func (s State) CanStop() bool {
	return s.Current != nil && !s.Busy
}

// Elapsed is the running time of the current entry in seconds.
func (s State) Elapsed() float64 {
	if s.Current == nil {
		return 0
	}
	d := s.Now.Sub(s.Current.StartTime).Seconds()
	if d < 0 {
		return 0
	}
	return d
}

func (s State) Visible() []domain.TimeEntry {
	return s.Filter.Apply(s.Entries)
}

// Action is an input to Reduce.
type Action interface{ action() }

type (
	DescriptionChanged struct{ Text string }
	StartRequested     struct{ At time.Time }
	EntryStarted       struct{ Entry domain.TimeEntry }
	StopRequested      struct{ At time.Time }
	EntryStopped       struct{ Entry domain.TimeEntry }
	EntriesLoaded      struct{ Entries []domain.TimeEntry }
	RequestFailed      struct{ Op Op }
	DateFilterChanged  struct{ Date string }
	TaskFilterChanged  struct{ Text string }
	SessionRestored    struct{ Entry *domain.TimeEntry }
	Tick               struct{ Now time.Time }
)

func (DescriptionChanged) action() {}
func (StartRequested) action()     {}
func (EntryStarted) action()       {}
func (StopRequested) action()      {}
func (EntryStopped) action()       {}
func (EntriesLoaded) action()      {}
func (RequestFailed) action()      {}
func (DateFilterChanged) action()  {}
func (TaskFilterChanged) action()  {}
func (SessionRestored) action()    {}
func (Tick) action()               {}

// Effect describes the request the caller must issue after a transition.
type Effect interface{ effect() }

type (
	CreateEffect struct{ Entry domain.TimeEntry }
	UpdateEffect struct{ Entry domain.TimeEntry }
	LoadEffect   struct{}
)

func (CreateEffect) effect() {}
func (UpdateEffect) effect() {}
func (LoadEffect) effect()   {}

// Reduce is the only place state transitions happen. It never mutates s and
// never performs I/O; a non-nil Effect tells the caller what to request.
func Reduce(s State, a Action) (State, Effect) {
	switch a := a.(type) {
	case DescriptionChanged:
		s.Description = a.Text

	case StartRequested:
		if !s.CanStart() {
			return s, nil
		}
		s.Busy = true
		s.Now = a.At
		return s, CreateEffect{Entry: domain.TimeEntry{
			ID:          a.At.UnixMilli(),
			Description: strings.TrimSpace(s.Description),
			StartTime:   a.At,
		}}

	case EntryStarted:
		e := a.Entry
		s.Current = &e
		s.Busy = false
		s.Description = ""
		s.Err = ""
		// Confirmed by the server just now; nothing to reconcile.
		s.Reconciled = true
		return s, LoadEffect{}

	case StopRequested:
		if !s.CanStop() {
			return s, nil
		}
		end := a.At
		if end.Before(s.Current.StartTime) {
			end = s.Current.StartTime
		}
		completed := *s.Current
		completed.EndTime = &end
		completed.Duration = end.Sub(completed.StartTime).Seconds()
		s.Busy = true
		s.Now = a.At
		return s, UpdateEffect{Entry: completed}

	case EntryStopped:
		s.Current = nil
		s.Busy = false
		s.Err = ""
		return s, LoadEffect{}

	case EntriesLoaded:
		s.Entries = append([]domain.TimeEntry(nil), a.Entries...)
		s.Err = ""
		if !s.Reconciled {
			s.Reconciled = true
			s.Current = reconcile(s.Current, s.Entries)
		}

	case RequestFailed:
		if a.Op != OpLoad {
			s.Busy = false
		}
		s.Err = a.Op.message()

	case DateFilterChanged:
		s.Filter.Date = strings.TrimSpace(a.Date)

	case TaskFilterChanged:
		s.Filter.Task = a.Text

	case SessionRestored:
		if s.Current == nil && a.Entry != nil && a.Entry.Running() {
			e := *a.Entry
			s.Current = &e
		}

	case Tick:
		s.Now = a.Now
	}
	return s, nil
}

// reconcile keeps a restored current entry only if the server still has it
// running, and adopts the server's copy.
func reconcile(current *domain.TimeEntry, entries []domain.TimeEntry) *domain.TimeEntry {
	if current == nil {
		return nil
	}
	for _, e := range entries {
		if e.ID == current.ID {
			if !e.Running() {
				return nil
			}
			return &e
		}
	}
	return nil
}
