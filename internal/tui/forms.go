package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/insight-ledger/internal/validate"
)

// form is a vertical stack of text inputs with a focus cursor and a
// single error line. Validation runs field-by-field on submit and
// stops at the first failing rule.
type form struct {
	inputs     []textinput.Model
	labels     []string
	validators []func(form) string
	focus      int
	errText    string
	submitting bool
}

func (f *form) value(i int) string {
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) focusField(i int) tea.Cmd {
	f.focus = i
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *form) next() tea.Cmd {
	return f.focusField((f.focus + 1) % len(f.inputs))
}

func (f *form) prev() tea.Cmd {
	return f.focusField((f.focus - 1 + len(f.inputs)) % len(f.inputs))
}

// validateAll runs every field validator in declared order and records
// the first failure. Returns true when the form is submittable.
func (f *form) validateAll() bool {
	for _, v := range f.validators {
		if msg := v(*f); msg != "" {
			f.errText = msg
			return false
		}
	}
	f.errText = ""
	return true
}

func (f *form) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.errText = ""
	f.submitting = false
	f.focusField(0)
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 128
	ti.Width = 40
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

const (
	loginFieldEmail = iota
	loginFieldPassword
)

func newLoginForm() form {
	f := form{
		inputs: []textinput.Model{
			newInput("email", false),
			newInput("password", true),
		},
		labels: []string{"Email", "Password"},
	}
	f.validators = []func(form) string{
		func(f form) string { return validate.Email(f.value(loginFieldEmail)) },
		func(f form) string { return validate.Password(f.value(loginFieldPassword)) },
	}
	f.focusField(0)
	return f
}

const (
	registerFieldName = iota
	registerFieldEmail
	registerFieldPassword
	registerFieldConfirm
)

func newRegisterForm() form {
	f := form{
		inputs: []textinput.Model{
			newInput("name", false),
			newInput("email", false),
			newInput("password", true),
			newInput("confirm password", true),
		},
		labels: []string{"Name", "Email", "Password", "Confirm password"},
	}
	f.validators = []func(form) string{
		func(f form) string { return validate.Name(f.value(registerFieldName)) },
		func(f form) string { return validate.Email(f.value(registerFieldEmail)) },
		func(f form) string { return validate.Password(f.value(registerFieldPassword)) },
		func(f form) string {
			return validate.PasswordConfirm(f.value(registerFieldConfirm), f.value(registerFieldPassword))
		},
	}
	f.focusField(0)
	return f
}

const (
	linkFieldAccountNumber = iota
	linkFieldIFSC
)

func newLinkForm() form {
	f := form{
		inputs: []textinput.Model{
			newInput("account number", false),
			newInput("IFSC code", false),
		},
		labels: []string{"Account number", "IFSC code"},
	}
	f.validators = []func(form) string{
		func(f form) string { return validate.AccountNumber(f.value(linkFieldAccountNumber)) },
		func(f form) string { return validate.IFSC(f.value(linkFieldIFSC)) },
	}
	f.focusField(0)
	return f
}
