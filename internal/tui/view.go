package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"timetracker/internal/client"
	"timetracker/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	timerIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69")).
			Bold(true)

	timerRunningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82")).
				Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	entryDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170"))

	entryTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	durationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Time Tracker"))
	b.WriteString("\n\n")

	if m.state.Err != "" {
		b.WriteString(errorStyle.Render(m.state.Err))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderTimer())
	b.WriteString("\n\n")

	inputs := make([]string, 0, fieldCount)
	for i := range m.inputs {
		inputs = append(inputs, m.inputs[i].View())
	}
	b.WriteString(boxStyle.Render(strings.Join(inputs, "\n")))
	b.WriteString("\n\n")

	visible := m.state.Visible()
	b.WriteString(renderEntries(visible))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total: %s\n\n", durationStyle.Render(client.FormatDuration(TotalSeconds(visible, m.state.Now))))

	b.WriteString(helpStyle.Render("enter start/stop • ↑/↓ focus • tab complete • ctrl+t today • esc clear • ctrl+r refresh • ctrl+c quit"))
	return b.String()
}

func (m *Model) renderTimer() string {
	cur := m.state.Current
	if cur == nil {
		status := "Not tracking"
		if m.state.Busy {
			status = "Starting…"
		}
		return timerIdleStyle.Render(fmt.Sprintf("%s  %s", client.FormatDuration(0), status))
	}
	status := cur.Description
	if m.state.Busy {
		status += " (stopping…)"
	}
	return timerRunningStyle.Render(fmt.Sprintf("%s  %s", client.FormatDuration(m.state.Elapsed()), status))
}

func renderEntries(entries []domain.TimeEntry) string {
	if len(entries) == 0 {
		return entryTimeStyle.Render("No entries.") + "\n"
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(renderEntry(e))
		b.WriteString("\n")
	}
	return b.String()
}

func renderEntry(e domain.TimeEntry) string {
	start := e.StartTime.Local()
	end := "running"
	duration := "--:--:--"
	if e.EndTime != nil {
		end = e.EndTime.Local().Format("15:04:05")
		duration = client.FormatDuration(e.Duration)
	}
	return fmt.Sprintf("%s  %s  %s",
		durationStyle.Render(duration),
		entryDescStyle.Render(e.Description),
		entryTimeStyle.Render(fmt.Sprintf("%s %s–%s", start.Format(dateLayout), start.Format("15:04:05"), end)),
	)
}
