package models

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Mode is how a command talks to the user.
type Mode string

const (
	// ModeTUI is the interactive terminal interface.
	ModeTUI Mode = "tui"
	// ModeJSON prints machine-readable output only.
	ModeJSON Mode = "json"
)

// BaseModel carries the state every screen needs: its context, the
// terminal size and whether it is shutting down.
type BaseModel struct {
	ctx      context.Context
	mode     Mode
	width    int
	height   int
	ready    bool
	quitting bool
	err      error
}

func NewBaseModel(ctx context.Context, mode Mode) BaseModel {
	return BaseModel{ctx: ctx, mode: mode}
}

func (m BaseModel) Context() context.Context {
	return m.ctx
}

func (m BaseModel) Mode() Mode {
	return m.mode
}

func (m BaseModel) Size() (width, height int) {
	return m.width, m.height
}

// IsReady reports whether the first WindowSizeMsg arrived.
func (m BaseModel) IsReady() bool {
	return m.ready
}

func (m BaseModel) IsQuitting() bool {
	return m.quitting
}

func (m BaseModel) Error() error {
	return m.err
}

func (m *BaseModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
}

func (m *BaseModel) SetError(err error) {
	m.err = err
}

func (m *BaseModel) Quit() tea.Cmd {
	m.quitting = true
	return tea.Quit
}

// Update handles window resizes and ctrl+c. Screens decide themselves
// which other keys quit, since "q" may be typed into a text field.
func (m *BaseModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.Quit()
		}
	}
	return nil
}
