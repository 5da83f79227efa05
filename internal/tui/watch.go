// Package tui provides the terminal watch view for Regent.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apiarylabs/regent/internal/progress"
	"github.com/apiarylabs/regent/pkg/models"
)

// ProgressSource is the slice of the coordinator the watch view polls.
type ProgressSource interface {
	MonitorProgress(ctx context.Context, objectiveID string) (*progress.Report, error)
	Agents(objectiveID string) ([]*models.Agent, error)
	State(objectiveID string) (models.ObjectiveState, error)
}

// tickMsg drives the poll loop.
type tickMsg time.Time

// reportMsg carries one poll result.
type reportMsg struct {
	report *progress.Report
	agents []*models.Agent
	state  models.ObjectiveState
	err    error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	issueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	agentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// WatchModel is the bubbletea model for the objective watch view.
type WatchModel struct {
	source      ProgressSource
	objectiveID string
	refresh     time.Duration

	bar    progressbar.Model
	report *progress.Report
	agents []*models.Agent
	state  models.ObjectiveState
	err    error

	width    int
	quitting bool
}

// NewWatch creates a watch view polling the source at the given rate.
func NewWatch(source ProgressSource, objectiveID string, refresh time.Duration) WatchModel {
	if refresh <= 0 {
		refresh = 500 * time.Millisecond
	}
	return WatchModel{
		source:      source,
		objectiveID: objectiveID,
		refresh:     refresh,
		bar:         progressbar.New(progressbar.WithDefaultGradient()),
	}
}

// Init starts the poll loop.
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.tick())
}

func (m WatchModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m WatchModel) poll() tea.Cmd {
	return func() tea.Msg {
		report, err := m.source.MonitorProgress(context.Background(), m.objectiveID)
		if err != nil {
			return reportMsg{err: err}
		}
		agents, err := m.source.Agents(m.objectiveID)
		if err != nil {
			return reportMsg{err: err}
		}
		state, err := m.source.State(m.objectiveID)
		if err != nil {
			return reportMsg{err: err}
		}
		return reportMsg{report: report, agents: agents, state: state}
	}
}

// Update handles messages.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 8
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}

	case tickMsg:
		return m, tea.Batch(m.poll(), m.tick())

	case reportMsg:
		m.err = msg.err
		if msg.err == nil {
			m.report = msg.report
			m.agents = msg.agents
			m.state = msg.state
			if msg.state == models.StateCompleted {
				m.quitting = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// View renders the watch screen.
func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Objective %s", m.objectiveID)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(issueStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}
	if m.report == nil {
		b.WriteString(labelStyle.Render("waiting for first progress report..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.bar.ViewAs(m.report.Overall / 100))
	b.WriteString(fmt.Sprintf(" %.1f%%  ", m.report.Overall))
	b.WriteString(labelStyle.Render(fmt.Sprintf("state=%s eta=%s", m.state, m.report.EstimatedRemaining.Round(time.Second))))
	b.WriteString("\n\n")

	if len(m.agents) > 0 {
		b.WriteString(labelStyle.Render("Agents"))
		b.WriteString("\n")
		for _, agent := range m.agents {
			pct := m.report.ByAgent[agent.ID]
			b.WriteString(fmt.Sprintf("  %s %s %5.1f%% (%s)\n",
				agentStyle.Render(agent.ID), agent.Status, pct, agent.Role))
		}
		b.WriteString("\n")
	}

	if len(m.report.BlockingIssues) > 0 {
		b.WriteString(labelStyle.Render("Blocking issues"))
		b.WriteString("\n")
		for _, issue := range m.report.BlockingIssues {
			b.WriteString(issueStyle.Render("  ! " + issue))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.state == models.StateCompleted {
		b.WriteString(doneStyle.Render("Objective completed."))
		b.WriteString("\n")
	} else if !m.quitting {
		b.WriteString(labelStyle.Render("press q to quit"))
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the watch view and blocks until it exits.
func Run(source ProgressSource, objectiveID string, refresh time.Duration) error {
	p := tea.NewProgram(NewWatch(source, objectiveID, refresh))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("watch view: %w", err)
	}
	return nil
}
