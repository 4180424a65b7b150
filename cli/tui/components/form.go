package components

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/sistemabuses/busadmin/cli/tui/models"
)

// FormWrapper runs a huh form as a standalone program.
type FormWrapper struct {
	models.BaseModel
	form      *huh.Form
	canceled  bool
	completed bool
}

func NewFormWrapper(ctx context.Context, form *huh.Form) *FormWrapper {
	return &FormWrapper{
		BaseModel: models.NewBaseModel(ctx, models.ModeTUI),
		form:      form,
	}
}

func (f *FormWrapper) Init() tea.Cmd {
	return f.form.Init()
}

func (f *FormWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyCtrlC {
		f.canceled = true
		return f, f.Quit()
	}
	f.BaseModel.Update(msg)
	next, cmd := f.form.Update(msg)
	if frm, ok := next.(*huh.Form); ok {
		f.form = frm
	}
	switch f.form.State {
	case huh.StateCompleted:
		f.completed = true
		return f, f.Quit()
	case huh.StateAborted:
		f.canceled = true
		return f, f.Quit()
	}
	return f, cmd
}

func (f *FormWrapper) View() string {
	if f.IsQuitting() {
		return ""
	}
	return f.form.View()
}

func (f *FormWrapper) IsCanceled() bool {
	return f.canceled
}

func (f *FormWrapper) IsCompleted() bool {
	return f.completed
}

// RunForm shows form and reports whether the user completed it.
func RunForm(ctx context.Context, form *huh.Form) (bool, error) {
	wrapper := NewFormWrapper(ctx, form)
	final, err := tea.NewProgram(wrapper, tea.WithContext(ctx)).Run()
	if err != nil {
		return false, err
	}
	if fw, ok := final.(*FormWrapper); ok {
		return fw.IsCompleted(), nil
	}
	return false, nil
}
