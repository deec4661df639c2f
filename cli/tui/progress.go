package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/decomp/procedure"
	"github.com/justapithecus/decomp/types"
)

// EventMsg carries one progress event into the model.
type EventMsg procedure.Event

// FinishMsg tells the model every run has returned.
type FinishMsg struct{}

// row is the display state of one artifact.
type row struct {
	artifact string
	stage    types.Stage
	message  string
	failed   bool
	// warnings counts diagnostics such as failed cleanups.
	warnings int
	finished bool
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ProgressModel is a Bubble Tea model showing one row per artifact.
type ProgressModel struct {
	workflow types.WorkflowKind
	rows     []*row
	index    map[string]int
	spinner  spinner.Model
	onQuit   func()
	quitting bool
	finished bool
}

// NewProgressModel creates a model for the given artifacts, in display
// order. onQuit is called once if the user quits before the runs finish.
func NewProgressModel(workflow types.WorkflowKind, artifacts []string, onQuit func()) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = ActiveStyle

	m := ProgressModel{
		workflow: workflow,
		index:    make(map[string]int, len(artifacts)),
		spinner:  s,
		onQuit:   onQuit,
	}
	for _, a := range artifacts {
		if _, dup := m.index[a]; dup {
			continue
		}
		m.index[a] = len(m.rows)
		m.rows = append(m.rows, &row{artifact: a, stage: types.StageIdle, message: "waiting"})
	}
	return m
}

// Init implements tea.Model.
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.apply(procedure.Event(msg))
		return m, nil

	case FinishMsg:
		m.finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			if !m.quitting && !m.finished && m.onQuit != nil {
				m.onQuit()
			}
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// apply folds an event into its artifact's row. Events for artifacts the
// model was not created with get a new row.
func (m *ProgressModel) apply(e procedure.Event) {
	i, ok := m.index[e.Artifact]
	if !ok {
		i = len(m.rows)
		m.index[e.Artifact] = i
		m.rows = append(m.rows, &row{artifact: e.Artifact})
	}
	r := m.rows[i]

	if e.Diagnostic {
		r.warnings++
		return
	}
	switch e.Stage {
	case types.StageFailed:
		r.failed = true
	case types.StageDone:
		r.finished = true
	}
	// The failed stage stays visible through cleanup and done.
	if !r.failed || e.Stage == types.StageFailed {
		r.stage = e.Stage
	}
	r.message = e.Message
	if e.Err != nil {
		r.message = e.Err.Error()
	}
}

// View implements tea.Model.
func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("decomp %s", m.workflow)))
	b.WriteString("\n")

	for _, r := range m.rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	if !m.finished && !m.quitting {
		b.WriteString(HelpStyle.Render("Press q or Ctrl+C to cancel"))
	}
	return b.String()
}

func (m ProgressModel) renderRow(r *row) string {
	var icon string
	switch {
	case r.failed:
		icon = ErrorStyle.Render("✗")
	case r.finished:
		icon = SuccessStyle.Render("✓")
	default:
		icon = m.spinner.View()
	}

	stage := StageStyle(r.stage).Inherit(StageLabelStyle).Render(string(r.stage))
	line := fmt.Sprintf("%s %s %s %s",
		icon,
		ArtifactStyle.Render(filepath.Base(r.artifact)),
		stage,
		MessageStyle.Render(r.message),
	)
	if r.warnings > 0 {
		line += " " + WarningStyle.Render(fmt.Sprintf("(%d cleanup warning(s))", r.warnings))
	}
	return line
}
