package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/sistemabuses/busadmin/cli/api"
	"github.com/sistemabuses/busadmin/cli/tui/components"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
	"github.com/sistemabuses/busadmin/pkg/crud"
)

// StatsFunc loads the counters.
type StatsFunc func(ctx context.Context) (*api.Stats, error)

type statsMsg struct {
	stats *api.Stats
	err   error
	at    time.Time
}

var (
	reloadKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recargar"))
	quitKey   = key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "salir"))
)

// Model shows four counter cards under the banner.
type Model struct {
	models.BaseModel
	load     StatsFunc
	spinner  spinner.Model
	loading  bool
	stats    *api.Stats
	loadedAt time.Time
	message  string
}

func NewModel(ctx context.Context, load StatsFunc) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &Model{
		BaseModel: models.NewBaseModel(ctx, models.ModeTUI),
		load:      load,
		spinner:   sp,
		loading:   true,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	ctx, load := m.Context(), m.load
	return func() tea.Msg {
		stats, err := load(ctx)
		return statsMsg{stats: stats, err: err, at: time.Now()}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd := m.BaseModel.Update(msg); cmd != nil {
		return m, cmd
	}
	switch msg := msg.(type) {
	case statsMsg:
		m.loading = false
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				m.SetError(msg.err)
				return m, m.Quit()
			}
			m.message = crud.Message(msg.err)
			return m, nil
		}
		m.stats, m.loadedAt, m.message = msg.stats, msg.at, ""
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, quitKey):
			return m, m.Quit()
		case key.Matches(msg, reloadKey) && !m.loading:
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}
	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) View() string {
	if m.IsQuitting() {
		return ""
	}
	width, _ := m.Size()
	var b strings.Builder
	b.WriteString(components.RenderBanner(width))
	b.WriteString("\n")

	switch {
	case m.stats != nil:
		b.WriteString(m.cards())
	case m.loading:
		b.WriteString(m.spinner.View() + " Cargando estadísticas...")
	}
	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(styles.ErrorStyle.Render(m.message))
		b.WriteString("\n")
	}
	footer := "r recargar · q salir"
	if !m.loadedAt.IsZero() {
		footer = "actualizado " + humanize.Time(m.loadedAt) + " · " + footer
	}
	if m.loading && m.stats != nil {
		footer = m.spinner.View() + " " + footer
	}
	b.WriteString(styles.HelpStyle.Render(footer))
	return b.String()
}

func (m *Model) cards() string {
	card := func(title string, n int) string {
		return styles.CardStyle.Render(
			styles.CardValueStyle.Render(humanize.Comma(int64(n))) + "\n" + title,
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Trabajadores", m.stats.Trabajadores),
		card("Buses", m.stats.Buses),
		card("Roles", m.stats.Roles),
		card("Asignaciones", m.stats.Asignaciones),
	)
}
