// Package browser is the full-screen record explorer: a filterable table
// with create, edit and delete forms on top of a crud.Controller.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sistemabuses/busadmin/cli/api"
	"github.com/sistemabuses/busadmin/cli/tui/components"
	"github.com/sistemabuses/busadmin/cli/tui/forms"
	"github.com/sistemabuses/busadmin/cli/tui/models"
	"github.com/sistemabuses/busadmin/cli/tui/styles"
	"github.com/sistemabuses/busadmin/engine/fleet"
	"github.com/sistemabuses/busadmin/pkg/crud"
)

// Config wires a browser to one record kind.
type Config[R any] struct {
	Descriptor fleet.Descriptor[R]
	Controller *crud.Controller[R, int64]
	Form       forms.Builder[R]
	// Catalog returns the options of reference fields; nil when the kind
	// has none.
	Catalog func(ctx context.Context) (*fleet.Catalog, error)
	// Copy puts text on the clipboard.
	Copy func(text string) error
	Now  func() time.Time
}

type state int

const (
	stateList state = iota
	stateSearch
	stateForm
	stateSaving
	stateConfirm
)

type loadedMsg struct{ err error }

type catalogMsg struct {
	catalog *fleet.Catalog
	err     error
}

type savedMsg struct{ err error }

type deletedMsg struct{ err error }

const chromeHeight = 6

// Model is the bubbletea model of the browser.
type Model[R any] struct {
	models.BaseModel
	cfg    Config[R]
	keys   components.BrowserKeyMap
	table  table.Model
	search textinput.Model
	status components.StatusBar
	help   help.Model
	state  state
	rows   []R

	catalog *fleet.Catalog
	form    *huh.Form
	collect func() R
	values  R

	confirm   *huh.Form
	confirmed bool
	deleteID  int64
}

func New[R any](ctx context.Context, cfg Config[R]) *Model[R] {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cols := make([]table.Column, len(cfg.Descriptor.Columns))
	for i, c := range cfg.Descriptor.Columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "buscar..."
	search.CharLimit = 100
	return &Model[R]{
		BaseModel: models.NewBaseModel(ctx, models.ModeTUI),
		cfg:       cfg,
		keys:      components.DefaultBrowserKeyMap(),
		table:     t,
		search:    search,
		status:    components.NewStatusBar(),
		help:      help.New(),
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(styles.ColorPrimary).
		Bold(true)
	return s
}

// Run shows the browser until the user quits.
func Run[R any](ctx context.Context, cfg Config[R]) error {
	final, err := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	if m, ok := final.(*Model[R]); ok && m.Error() != nil {
		return m.Error()
	}
	return nil
}

func (m *Model[R]) Init() tea.Cmd {
	return tea.Batch(m.status.SetLoading(true), m.load())
}

func (m *Model[R]) load() tea.Cmd {
	ctx, ctrl := m.Context(), m.cfg.Controller
	return func() tea.Msg {
		return loadedMsg{err: ctrl.Load(ctx)}
	}
}

func (m *Model[R]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd := m.BaseModel.Update(msg); cmd != nil {
		return m, cmd
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case loadedMsg:
		return m, m.handleLoaded(msg)
	case catalogMsg:
		return m, m.handleCatalog(msg)
	case savedMsg:
		return m, m.handleSaved(msg)
	case deletedMsg:
		return m, m.handleDeleted(msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, m.forward(msg)
}

func (m *Model[R]) resize(width, height int) {
	m.status.SetWidth(width)
	m.help.Width = width
	m.table.SetWidth(width)
	m.table.SetHeight(max(3, height-chromeHeight))
	if m.form != nil {
		m.form = m.form.WithWidth(width)
	}
}

// forward passes non-key messages to whichever widget is active.
func (m *Model[R]) forward(msg tea.Msg) tea.Cmd {
	cmds := []tea.Cmd{m.status.Update(msg)}
	switch m.state {
	case stateForm:
		cmds = append(cmds, m.updateForm(msg))
	case stateConfirm:
		cmds = append(cmds, m.updateConfirm(msg))
	case stateSearch:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model[R]) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.state {
	case stateSearch:
		return m.handleSearchKey(msg)
	case stateForm:
		if key.Matches(msg, m.keys.Back) {
			m.closeForm()
			return nil
		}
		return m.updateForm(msg)
	case stateConfirm:
		if key.Matches(msg, m.keys.Back) {
			m.closeConfirm()
			return nil
		}
		return m.updateConfirm(msg)
	case stateSaving:
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.Quit()
	case key.Matches(msg, m.keys.Search):
		m.state = stateSearch
		m.search.SetValue(m.cfg.Controller.Query())
		m.search.CursorEnd()
		return m.search.Focus()
	case key.Matches(msg, m.keys.Back):
		if m.cfg.Controller.Query() != "" {
			m.cfg.Controller.SetQuery("")
			m.refresh()
		}
		return nil
	case key.Matches(msg, m.keys.New):
		return m.openForm(m.cfg.Controller.OpenCreate(m.cfg.Descriptor.Defaults(m.cfg.Now())))
	case key.Matches(msg, m.keys.Edit):
		record, ok := m.selected()
		if !ok {
			return nil
		}
		return m.openForm(m.cfg.Controller.OpenEdit(m.cfg.Descriptor.ID(record)))
	case key.Matches(msg, m.keys.Delete):
		return m.openConfirm()
	case key.Matches(msg, m.keys.Reload):
		m.status.ClearMessage()
		return tea.Batch(m.status.SetLoading(true), m.load())
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
		return nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *Model[R]) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		m.state = stateList
		m.search.Blur()
		return nil
	case tea.KeyEsc:
		m.state = stateList
		m.search.Blur()
		m.search.SetValue("")
		m.cfg.Controller.SetQuery("")
		m.refresh()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.cfg.Controller.SetQuery(m.search.Value())
	m.refresh()
	return cmd
}

func (m *Model[R]) handleLoaded(msg loadedMsg) tea.Cmd {
	m.status.SetLoading(m.cfg.Controller.Loading())
	if msg.err != nil {
		if api.IsUnauthorized(msg.err) {
			m.SetError(msg.err)
			return m.Quit()
		}
		m.status.SetMessage(components.MessageError, crud.Message(msg.err))
	}
	m.refresh()
	return nil
}

// refresh copies the controller's filtered list into the table.
func (m *Model[R]) refresh() {
	snap := m.cfg.Controller.Snapshot()
	m.rows = snap.Filtered
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = m.cfg.Descriptor.Row(r)
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(0, len(rows)-1))
	}
	m.status.SetCounts(len(snap.Filtered), len(snap.Items), snap.Query)
}

func (m *Model[R]) selected() (R, bool) {
	var zero R
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return zero, false
	}
	return m.rows[i], true
}

func (m *Model[R]) copySelected() {
	record, ok := m.selected()
	if !ok || m.cfg.Copy == nil {
		return
	}
	raw, err := json.MarshalIndent(record, "", "  ")
	if err == nil {
		err = m.cfg.Copy(string(raw))
	}
	if err != nil {
		m.status.SetMessage(components.MessageError, "No se pudo copiar: "+err.Error())
		return
	}
	m.status.SetMessage(components.MessageSuccess, "Copiado al portapapeles")
}

// openForm continues after OpenCreate/OpenEdit by fetching the catalog the
// form needs.
func (m *Model[R]) openForm(err error) tea.Cmd {
	if err != nil {
		m.status.SetMessage(components.MessageError, crud.Message(err))
		return nil
	}
	m.status.ClearMessage()
	if m.cfg.Catalog == nil {
		return m.handleCatalog(catalogMsg{})
	}
	ctx, fetch := m.Context(), m.cfg.Catalog
	return tea.Batch(m.status.SetLoading(true), func() tea.Msg {
		catalog, err := fetch(ctx)
		return catalogMsg{catalog: catalog, err: err}
	})
}

func (m *Model[R]) handleCatalog(msg catalogMsg) tea.Cmd {
	m.status.SetLoading(m.cfg.Controller.Loading())
	if msg.err != nil {
		m.cfg.Controller.CloseModal()
		m.status.SetMessage(components.MessageError, crud.Message(msg.err))
		return nil
	}
	modal, ok := m.cfg.Controller.Modal()
	if !ok {
		return nil
	}
	m.catalog = msg.catalog
	m.values = modal.Values
	return m.buildForm(modal.LastError)
}

func (m *Model[R]) buildForm(note string) tea.Cmd {
	modal, ok := m.cfg.Controller.Modal()
	if !ok {
		m.state = stateList
		return nil
	}
	title := m.cfg.Descriptor.CreateTitle()
	if modal.Mode == crud.ModeEdit {
		title = m.cfg.Descriptor.EditTitle()
	}
	m.form, m.collect = m.cfg.Form(title, note, m.values, m.catalog)
	if w, _ := m.Size(); w > 0 {
		m.form = m.form.WithWidth(w)
	}
	m.state = stateForm
	return m.form.Init()
}

func (m *Model[R]) updateForm(msg tea.Msg) tea.Cmd {
	if m.form == nil {
		return nil
	}
	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}
	switch m.form.State {
	case huh.StateAborted:
		m.closeForm()
		return nil
	case huh.StateCompleted:
		return m.submit()
	}
	return cmd
}

// submit validates locally first; a validation error re-opens the form
// with the message and the values the user typed.
func (m *Model[R]) submit() tea.Cmd {
	m.values = m.collect()
	payload, err := m.cfg.Descriptor.Prepare(m.values, m.cfg.Now())
	if err != nil {
		return m.buildForm(crud.Message(err))
	}
	m.state = stateSaving
	ctx, ctrl := m.Context(), m.cfg.Controller
	return tea.Batch(m.status.SetLoading(true), func() tea.Msg {
		_, err := ctrl.Submit(ctx, payload)
		return savedMsg{err: err}
	})
}

func (m *Model[R]) handleSaved(msg savedMsg) tea.Cmd {
	m.status.SetLoading(m.cfg.Controller.Loading())
	switch {
	case msg.err == nil:
		m.status.SetMessage(components.MessageSuccess, "Registro guardado")
	case errors.Is(msg.err, crud.ErrLoadFailed):
		m.status.SetMessage(components.MessageError, "Registro guardado. "+crud.Message(msg.err))
	case errors.Is(msg.err, crud.ErrSubmitFailed):
		if api.IsUnauthorized(msg.err) {
			m.SetError(msg.err)
			return m.Quit()
		}
		return m.buildForm(crud.Message(msg.err))
	default:
		m.status.SetMessage(components.MessageError, crud.Message(msg.err))
	}
	m.form, m.collect = nil, nil
	m.state = stateList
	m.refresh()
	return nil
}

func (m *Model[R]) closeForm() {
	m.cfg.Controller.CloseModal()
	m.form, m.collect = nil, nil
	m.state = stateList
}

func (m *Model[R]) openConfirm() tea.Cmd {
	record, ok := m.selected()
	if !ok {
		return nil
	}
	m.deleteID = m.cfg.Descriptor.ID(record)
	m.confirmed = false
	m.confirm = forms.Delete(m.cfg.Descriptor.Label(record), &m.confirmed)
	m.state = stateConfirm
	return m.confirm.Init()
}

func (m *Model[R]) updateConfirm(msg tea.Msg) tea.Cmd {
	if m.confirm == nil {
		return nil
	}
	next, cmd := m.confirm.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.confirm = f
	}
	switch m.confirm.State {
	case huh.StateAborted:
		m.closeConfirm()
		return nil
	case huh.StateCompleted:
		confirmed, id := m.confirmed, m.deleteID
		m.closeConfirm()
		if !confirmed {
			return nil
		}
		return m.remove(id)
	}
	return cmd
}

func (m *Model[R]) closeConfirm() {
	m.confirm = nil
	m.state = stateList
}

func (m *Model[R]) remove(id int64) tea.Cmd {
	ctx, ctrl := m.Context(), m.cfg.Controller
	return tea.Batch(m.status.SetLoading(true), func() tea.Msg {
		return deletedMsg{err: ctrl.DeleteRecord(ctx, id)}
	})
}

func (m *Model[R]) handleDeleted(msg deletedMsg) tea.Cmd {
	m.status.SetLoading(m.cfg.Controller.Loading())
	switch {
	case msg.err == nil:
		m.status.SetMessage(components.MessageSuccess, "Registro eliminado")
	case errors.Is(msg.err, crud.ErrLoadFailed):
		m.status.SetMessage(components.MessageError, "Registro eliminado. "+crud.Message(msg.err))
	default:
		if api.IsUnauthorized(msg.err) {
			m.SetError(msg.err)
			return m.Quit()
		}
		m.status.SetMessage(components.MessageError, crud.Message(msg.err))
	}
	m.refresh()
	return nil
}

func (m *Model[R]) View() string {
	if m.IsQuitting() {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.RenderTitle(m.cfg.Descriptor.Kind.Title()))
	b.WriteString("\n")
	switch {
	case m.state == stateSearch:
		b.WriteString(m.search.View())
	case m.cfg.Controller.Query() != "":
		b.WriteString(styles.HelpStyle.Render("filtro: " + m.cfg.Controller.Query() + "  (esc para limpiar)"))
	}
	b.WriteString("\n")
	switch m.state {
	case stateForm, stateSaving:
		if m.form != nil {
			b.WriteString(m.form.View())
		}
	case stateConfirm:
		b.WriteString(styles.DialogStyle.Render(m.confirm.View()))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")
	b.WriteString(m.status.View())
	if m.state == stateList {
		b.WriteString("\n")
		b.WriteString(m.help.View(m.keys))
	}
	return b.String()
}
