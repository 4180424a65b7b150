package components

import "github.com/charmbracelet/bubbles/key"

// BrowserKeyMap lists the bindings of the record browser.
type BrowserKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Search key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Reload key.Binding
	Copy   key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func DefaultBrowserKeyMap() BrowserKeyMap {
	return BrowserKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "subir")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "bajar")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "buscar")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "nuevo")),
		Edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "editar")),
		Delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "eliminar")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recargar")),
		Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copiar JSON")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "volver")),
		Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "salir")),
	}
}

func (k BrowserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.New, k.Edit, k.Delete, k.Reload, k.Copy, k.Quit}
}

func (k BrowserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Search, k.Back},
		{k.New, k.Edit, k.Delete},
		{k.Reload, k.Copy, k.Quit},
	}
}
