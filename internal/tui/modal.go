package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalSaveSession
	modalLogin
)

var modalPrompts = map[modalKind]string{
	modalSaveSession: "Save session as:",
	modalLogin:       "Log in as:",
}

// Modal is a one-line prompt with explicit confirm and cancel.
type Modal struct {
	Kind  modalKind
	input textinput.Model
}

func NewModal(kind modalKind, value string) (Modal, tea.Cmd) {
	in := textinput.New()
	in.Prompt = "› "
	in.CharLimit = 120
	in.Width = 40
	in.SetValue(value)
	in.CursorEnd()
	cmd := in.Focus()
	return Modal{Kind: kind, input: in}, cmd
}

func (m Modal) Value() string { return m.input.Value() }

func (m Modal) Update(msg tea.Msg) (Modal, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Modal) View(st styles) string {
	body := st.title.Render(modalPrompts[m.Kind]) + "\n\n" +
		m.input.View() + "\n\n" +
		st.normal.Render("enter confirm · esc cancel")
	return st.box.Render(body)
}
