// Package ui renders interactive deploy progress on a TTY.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Stage is one step of the deploy pipeline, in execution order.
type Stage uint8

const (
	StageValidate Stage = iota
	StageBuild
	StageUpload
	StageCreate
)

var stageNames = [...]string{"validate", "build", "upload", "create"}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// Status of one stage.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event updates one stage. Detail replaces the default label when set
// ("uploading 1.2 MiB", an error message).
type Event struct {
	Stage  Stage
	Status Status
	Detail string
}

type deployModel struct {
	appID   string
	events  <-chan Event
	spinner spinner.Model
	prog    progress.Model
	stages  []stageItem
	width   int
	done    bool
	failed  bool
}

type stageItem struct {
	stage  Stage
	status Status
	detail string
}

type eventMsg Event
type doneMsg struct{}

// NewDeployModel returns a Bubble Tea model that renders the deploy
// pipeline. The channel closing ends the program; an error event marks
// the run failed but still waits for the close.
func NewDeployModel(appID string, events <-chan Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 60

	stages := make([]stageItem, 0, len(stageNames))
	for i := range stageNames {
		stages = append(stages, stageItem{stage: Stage(i), status: StatusQueued})
	}
	return &deployModel{
		appID:   appID,
		events:  events,
		spinner: sp,
		prog:    prog,
		stages:  stages,
		width:   80,
	}
}

func (m *deployModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *deployModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *deployModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := fmt.Sprintf("deploying %s", m.appID)
	switch {
	case m.done && m.failed:
		header = fmt.Sprintf("failed: %s", header)
	case m.done:
		header = fmt.Sprintf("done: %s", header)
	default:
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	detailWidth := m.width - 24
	if detailWidth < 20 {
		detailWidth = 20
	}
	for _, item := range m.stages {
		label := styleStatus(item.status).Render(fmt.Sprintf("%7s", statusLabel(item.status)))
		line := fmt.Sprintf("  %s %-8s", label, item.stage)
		if item.detail != "" {
			line += " " + truncate(item.detail, detailWidth)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done && !m.failed {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *deployModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *deployModel) applyEvent(ev Event) tea.Cmd {
	if int(ev.Stage) >= len(m.stages) {
		return nil
	}
	m.stages[ev.Stage].status = ev.Status
	m.stages[ev.Stage].detail = ev.Detail
	if ev.Status == StatusError {
		m.failed = true
	}

	total := 0.0
	for _, item := range m.stages {
		switch item.status {
		case StatusDone:
			total += 1.0
		case StatusWorking:
			total += 0.5
		}
	}
	return m.prog.SetPercent(total / float64(len(m.stages)))
}

func statusLabel(status Status) string {
	switch status {
	case StatusWorking:
		return "working"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "queued"
	}
}

func styleStatus(status Status) lipgloss.Style {
	switch status {
	case StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
