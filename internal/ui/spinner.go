package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{ err error }

type spinnerModel struct {
	spinner  spinner.Model
	title    string
	cancel   context.CancelFunc
	finished bool
}

func newSpinnerModel(title string, cancel context.CancelFunc) spinnerModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(StylePrimary))
	return spinnerModel{spinner: s, title: title, cancel: cancel}
}

func (m spinnerModel) Init() tea.Cmd { return m.spinner.Tick }

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.cancel()
			m.finished = true
			return m, tea.Quit
		}
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.finished {
		return ""
	}
	return m.spinner.View() + " " + StyleSubtle.Render(m.title) + "\n"
}

// RunWithSpinner runs fn while a spinner shows title. Pressing ctrl+c
// cancels the context handed to fn; the call still waits for fn to return.
func RunWithSpinner(ctx context.Context, title string, fn func(context.Context) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(title, cancel), opts...)
	result := make(chan error, 1)
	go func() {
		err := fn(ctx)
		result <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return err
	}
	return <-result
}
