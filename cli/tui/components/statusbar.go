package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sistemabuses/busadmin/cli/tui/styles"
)

// MessageKind selects the color of the status message.
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageSuccess
	MessageError
)

// StatusBar shows record counts, a loading spinner and the last message.
type StatusBar struct {
	width   int
	spinner spinner.Model
	loading bool
	shown   int
	total   int
	query   string
	message string
	kind    MessageKind
}

func NewStatusBar() StatusBar {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return StatusBar{spinner: sp}
}

func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetCounts records how many rows are visible out of the total.
func (s *StatusBar) SetCounts(shown, total int, query string) {
	s.shown, s.total, s.query = shown, total, query
}

// SetLoading starts or stops the spinner. The returned command keeps the
// spinner ticking.
func (s *StatusBar) SetLoading(loading bool) tea.Cmd {
	was := s.loading
	s.loading = loading
	if loading && !was {
		return s.spinner.Tick
	}
	return nil
}

func (s *StatusBar) Loading() bool {
	return s.loading
}

func (s *StatusBar) SetMessage(kind MessageKind, text string) {
	s.kind, s.message = kind, text
}

func (s *StatusBar) Message() string {
	return s.message
}

func (s *StatusBar) ClearMessage() {
	s.message = ""
}

func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.loading {
		return nil
	}
	if tick, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(tick)
		return cmd
	}
	return nil
}

func (s StatusBar) View() string {
	parts := make([]string, 0, 3)
	if s.loading {
		parts = append(parts, s.spinner.View()+" Cargando...")
	}
	counts := fmt.Sprintf("%d registros", s.total)
	if strings.TrimSpace(s.query) != "" {
		counts = fmt.Sprintf("%d de %d registros · filtro %q", s.shown, s.total, s.query)
	}
	parts = append(parts, counts)
	if s.message != "" {
		style := styles.HelpStyle
		switch s.kind {
		case MessageSuccess:
			style = styles.SuccessStyle
		case MessageError:
			style = styles.ErrorStyle
		}
		parts = append(parts, style.Render(s.message))
	}
	bar := styles.StatusBarStyle
	if s.width > 0 {
		bar = bar.Width(s.width)
	}
	return bar.Render(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  │  ")))
}
