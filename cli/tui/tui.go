package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/decomp/procedure"
	"github.com/justapithecus/decomp/types"
)

// Program runs the progress view while workflow runs proceed in other
// goroutines. It implements procedure.Reporter.
type Program struct {
	program *tea.Program
	done    chan error
}

// NewProgram creates the progress view. onQuit is called if the user
// quits early; callers pass the cancel func of the run context.
func NewProgram(workflow types.WorkflowKind, artifacts []string, onQuit func(), opts ...tea.ProgramOption) *Program {
	model := NewProgressModel(workflow, artifacts, onQuit)
	return &Program{
		program: tea.NewProgram(model, opts...),
		done:    make(chan error, 1),
	}
}

// Start runs the view in the background.
func (p *Program) Start() {
	go func() {
		_, err := p.program.Run()
		p.done <- err
	}()
}

// Report forwards a progress event to the view.
func (p *Program) Report(e procedure.Event) {
	p.program.Send(EventMsg(e))
}

// Finish tells the view every run has returned and waits for it to exit.
func (p *Program) Finish() error {
	p.program.Send(FinishMsg{})
	return <-p.done
}

var _ procedure.Reporter = (*Program)(nil)
