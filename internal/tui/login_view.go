package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/pickapad/internal/account"
	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/validate"
)

// LoginStep holds the login form rules, shared with the login command.
var LoginStep = validate.Step{
	Index: 1,
	Title: "Log in",
	Rules: []validate.Rule{
		{Field: "email", Label: "Email", Required: true, Format: &validate.Email},
		{Field: "password", Label: "Password", Required: true, MinLen: 6},
	},
}

type loginFinishedMsg struct {
	result account.Result
	err    error
}

type loginView struct {
	ctx      context.Context
	accounts *account.Service
	inputs   []textinput.Model
	focus    int
	errors   map[string]string
	notice   string
	pending  bool
	spinner  spinner.Model
}

func newLoginView(ctx context.Context, accounts *account.Service) *loginView {
	email := textinput.New()
	email.Prompt = "› "
	email.Placeholder = "you@company.com"
	email.Focus()
	password := textinput.New()
	password.Prompt = "› "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &loginView{
		ctx:      ctx,
		accounts: accounts,
		inputs:   []textinput.Model{email, password},
		errors:   map[string]string{},
		spinner:  sp,
	}
}

func (v *loginView) focusCmd() tea.Cmd {
	return textinput.Blink
}

func (v *loginView) setFocus(idx int) {
	v.focus = (idx + len(v.inputs)) % len(v.inputs)
	for i := range v.inputs {
		if i == v.focus {
			v.inputs[i].Focus()
		} else {
			v.inputs[i].Blur()
		}
	}
}

func (v *loginView) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.pending {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd
	case tea.KeyMsg:
		if v.pending {
			return nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			v.setFocus(v.focus + 1)
			return nil
		case "enter":
			if v.focus == 0 {
				v.setFocus(1)
				return nil
			}
			return v.submit()
		}
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return cmd
}

func (v *loginView) values() form.Values {
	return form.Values{
		"email":    form.Text(strings.TrimSpace(v.inputs[0].Value())),
		"password": form.Text(v.inputs[1].Value()),
	}
}

func (v *loginView) submit() tea.Cmd {
	v.notice = ""
	v.errors = map[string]string{}
	values := v.values()
	if errs := validate.Check(LoginStep, values); len(errs) > 0 {
		for _, fe := range errs {
			v.errors[fe.Field] = fe.Message
		}
		return nil
	}
	v.pending = true
	ctx, accounts := v.ctx, v.accounts
	email, password := values.Text("email"), values.Text("password")
	login := func() tea.Msg {
		res, err := accounts.Login(ctx, email, password)
		return loginFinishedMsg{result: res, err: err}
	}
	return tea.Batch(v.spinner.Tick, login)
}

// finish applies a login result. It reports true on success.
func (v *loginView) finish(msg loginFinishedMsg) bool {
	v.pending = false
	if msg.err == nil {
		return true
	}
	if errors.Is(msg.err, account.ErrInvalidCredentials) {
		v.notice = "Invalid email or password"
	} else {
		v.notice = msg.err.Error()
	}
	v.inputs[1].SetValue("")
	return false
}

func (v *loginView) view() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Welcome back"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Sign in to your Pick-A-Pad account"))
	b.WriteString("\n\n")
	for i, rule := range LoginStep.Rules {
		label := rule.Label
		if i == v.focus {
			label = focusStyle.Render(label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(v.inputs[i].View())
		b.WriteString("\n")
		if msg, ok := v.errors[rule.Field]; ok {
			b.WriteString(errorStyle.Render("  " + msg))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	switch {
	case v.pending:
		b.WriteString(v.spinner.View() + " Signing in…\n")
	case v.notice != "":
		b.WriteString(errorStyle.Render(v.notice) + "\n")
	}
	b.WriteString(mutedStyle.Render("tab switch field · enter sign in · esc menu"))
	return b.String()
}
