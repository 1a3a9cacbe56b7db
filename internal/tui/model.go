package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"timetracker/internal/domain"
)

const requestTimeout = 10 * time.Second

// EntryAPI is the subset of the API client the UI needs.
type EntryAPI interface {
	ListEntries(ctx context.Context) ([]domain.TimeEntry, error)
	CreateEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error)
	UpdateEntry(ctx context.Context, e domain.TimeEntry) (domain.TimeEntry, error)
}

// CurrentCache persists the running entry between sessions.
type CurrentCache interface {
	Load() (*domain.TimeEntry, error)
	Save(e *domain.TimeEntry) error
}

const (
	fieldDescription = iota
	fieldDate
	fieldTask
	fieldCount
)

type Model struct {
	state  State
	api    EntryAPI
	cache  CurrentCache
	log    *slog.Logger
	now    func() time.Time
	inputs [fieldCount]textinput.Model
	focus  int
	width  int
	height int
}

func NewModel(api EntryAPI, cache CurrentCache, log *slog.Logger) *Model {
	m := &Model{
		api:   api,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
	m.state.Now = m.now()

	desc := textinput.New()
	desc.Placeholder = "What are you working on?"
	desc.CharLimit = 200
	desc.ShowSuggestions = true
	desc.Prompt = "› "

	date := textinput.New()
	date.Placeholder = "YYYY-MM-DD"
	date.CharLimit = len(dateLayout)
	date.Prompt = "date: "

	task := textinput.New()
	task.Placeholder = "task contains…"
	task.Prompt = "task: "

	m.inputs = [fieldCount]textinput.Model{desc, date, task}
	m.inputs[fieldDescription].Focus()

	if cache != nil {
		restored, err := cache.Load()
		if err != nil {
			log.Warn("failed to restore running entry", slog.String("error", err.Error()))
		}
		m.state, _ = Reduce(m.state, SessionRestored{Entry: restored})
	}
	return m
}

// State exposes the current UI state.
func (m *Model) State() State { return m.state }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadCmd(), tickCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case Tick:
		m.state, _ = Reduce(m.state, msg)
		return m, tickCmd()
	case Action:
		return m, m.dispatch(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-12, 10)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.state.CanStop() {
			return m, m.dispatch(StopRequested{At: m.now()})
		}
		return m, m.dispatch(StartRequested{At: m.now()})
	case "down":
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case "up":
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+t":
		m.inputs[fieldDate].SetValue(m.now().Format(dateLayout))
		return m, m.dispatch(DateFilterChanged{Date: m.inputs[fieldDate].Value()})
	case "ctrl+r":
		return m, m.loadCmd()
	case "esc":
		m.inputs[m.focus].SetValue("")
		return m, m.dispatch(m.inputAction(m.focus))
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, tea.Batch(cmd, m.dispatch(m.inputAction(m.focus)))
}

func (m *Model) inputAction(field int) Action {
	v := m.inputs[field].Value()
	switch field {
	case fieldDate:
		return DateFilterChanged{Date: v}
	case fieldTask:
		return TaskFilterChanged{Text: v}
	default:
		return DescriptionChanged{Text: v}
	}
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[field].Focus()
}

// dispatch runs an action through Reduce, mirrors the current entry to the
// cache when it changed, and turns the resulting effect into a command.
func (m *Model) dispatch(a Action) tea.Cmd {
	prev := m.state
	next, eff := Reduce(prev, a)
	m.state = next

	if !sameCurrent(prev.Current, next.Current) && m.cache != nil {
		if err := m.cache.Save(next.Current); err != nil {
			m.log.Warn("failed to persist running entry", slog.String("error", err.Error()))
		}
	}
	if m.inputs[fieldDescription].Value() != next.Description {
		m.inputs[fieldDescription].SetValue(next.Description)
	}
	if _, ok := a.(EntriesLoaded); ok {
		m.inputs[fieldDescription].SetSuggestions(KnownDescriptions(next.Entries))
	}

	switch eff := eff.(type) {
	case CreateEffect:
		return m.createCmd(eff.Entry)
	case UpdateEffect:
		return m.updateCmd(eff.Entry)
	case LoadEffect:
		return m.loadCmd()
	}
	return nil
}

func sameCurrent(a, b *domain.TimeEntry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Running() == b.Running() && a.StartTime.Equal(b.StartTime)
}

func (m *Model) loadCmd() tea.Cmd {
	api, log := m.api, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		entries, err := api.ListEntries(ctx)
		if err != nil {
			log.Error("failed to load entries", slog.String("error", err.Error()))
			return RequestFailed{Op: OpLoad}
		}
		return EntriesLoaded{Entries: entries}
	}
}

func (m *Model) createCmd(e domain.TimeEntry) tea.Cmd {
	api, log := m.api, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		saved, err := api.CreateEntry(ctx, e)
		if err != nil {
			log.Error("failed to start timer", slog.String("error", err.Error()))
			return RequestFailed{Op: OpStart}
		}
		log.Info("timer started", slog.Int64("id", saved.ID), slog.String("description", saved.Description))
		return EntryStarted{Entry: saved}
	}
}

func (m *Model) updateCmd(e domain.TimeEntry) tea.Cmd {
	api, log := m.api, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		saved, err := api.UpdateEntry(ctx, e)
		if err != nil {
			log.Error("failed to stop timer", slog.Int64("id", e.ID), slog.String("error", err.Error()))
			return RequestFailed{Op: OpStop}
		}
		log.Info("timer stopped", slog.Int64("id", saved.ID), slog.Float64("duration", saved.Duration))
		return EntryStopped{Entry: saved}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return Tick{Now: t}
	})
}
