package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/pickapad/internal/account"
	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/logbook"
	"github.com/kingrea/pickapad/internal/signup"
	"github.com/kingrea/pickapad/internal/validate"
	"github.com/kingrea/pickapad/internal/wizard"
)

type submitFinishedMsg struct {
	outcome wizard.Outcome
	err     error
}

// fieldInput binds one rule of the current step to its widget. Bool fields
// have no text input and are toggled in place.
type fieldInput struct {
	rule  validate.Rule
	input textinput.Model
}

func (f fieldInput) isBool() bool { return f.rule.Kind == form.KindBool }

type wizardView struct {
	ctx      context.Context
	flow     signup.Flow
	ctrl     *wizard.Controller
	gateway  *account.Gateway
	logger   *zap.Logger
	fields   []fieldInput
	focus    int
	pending  bool
	notice   string
	spinner  spinner.Model
	progress progress.Model
}

func newWizardView(ctx context.Context, flow signup.Flow, gateway *account.Gateway, journal *logbook.Logbook, logger *zap.Logger) (*wizardView, error) {
	opts := []wizard.Option{
		wizard.WithDefaults(flow.Defaults),
		wizard.WithLogger(logger),
		wizard.WithName(flow.Title),
	}
	if journal != nil {
		opts = append(opts, wizard.WithJournal(journal))
	}
	ctrl, err := wizard.New(flow.Steps, gateway, opts...)
	if err != nil {
		return nil, err
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusStyle
	v := &wizardView{
		ctx:      ctx,
		flow:     flow,
		ctrl:     ctrl,
		gateway:  gateway,
		logger:   logger,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	v.loadStep()
	return v, nil
}

func (v *wizardView) resize(width int) {
	if width <= 0 {
		return
	}
	v.progress.Width = max(20, min(60, width/2))
}

// loadStep rebuilds the widgets for the controller's current step from the store.
func (v *wizardView) loadStep() {
	step := v.ctrl.Current()
	store := v.ctrl.Store()
	v.fields = make([]fieldInput, 0, len(step.Rules))
	for _, rule := range step.Rules {
		f := fieldInput{rule: rule}
		if !f.isBool() {
			in := textinput.New()
			in.Prompt = "› "
			in.CharLimit = 500
			in.Placeholder = placeholderFor(rule)
			if rule.Password != nil || rule.MatchField != "" {
				in.EchoMode = textinput.EchoPassword
				in.EchoCharacter = '•'
			}
			in.SetValue(inputText(store.Get(rule.Field)))
			f.input = in
		}
		v.fields = append(v.fields, f)
	}
	v.setFocus(0)
}

func placeholderFor(rule validate.Rule) string {
	switch {
	case rule.Placeholder != "":
		return rule.Placeholder
	case len(rule.OneOf) > 0:
		return strings.Join(rule.OneOf, " | ")
	case rule.Kind == form.KindFile:
		return "path/to/document.pdf"
	case rule.Kind == form.KindList:
		return "comma separated"
	}
	return ""
}

func inputText(value form.Value) string {
	switch value.Kind() {
	case form.KindList:
		return strings.Join(value.List(), ", ")
	case form.KindFile:
		ref, _ := value.File()
		return ref.Path
	case form.KindBool:
		return ""
	default:
		return value.String()
	}
}

func (v *wizardView) setFocus(idx int) {
	if len(v.fields) == 0 {
		v.focus = 0
		return
	}
	idx = (idx + len(v.fields)) % len(v.fields)
	for i := range v.fields {
		if v.fields[i].isBool() {
			continue
		}
		if i == idx {
			v.fields[i].input.Focus()
		} else {
			v.fields[i].input.Blur()
		}
	}
	v.focus = idx
}

func (v *wizardView) focusCmd() tea.Cmd {
	if len(v.fields) == 0 || v.fields[v.focus].isBool() {
		return nil
	}
	return textinput.Blink
}

// update handles one message. leave is true once the session was discarded.
func (v *wizardView) update(msg tea.Msg) (cmd tea.Cmd, leave bool) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !v.pending {
			return nil, false
		}
		v.spinner, cmd = v.spinner.Update(msg)
		return cmd, false
	case tea.KeyMsg:
		if v.pending {
			v.notice = "Creating your account… please wait"
			return nil, false
		}
		switch msg.String() {
		case "esc":
			if err := v.ctrl.Cancel(); err != nil {
				v.notice = err.Error()
				return nil, false
			}
			return nil, true
		case "tab", "down":
			v.setFocus(v.focus + 1)
			return v.focusCmd(), false
		case "shift+tab", "up":
			v.setFocus(v.focus - 1)
			return v.focusCmd(), false
		case "ctrl+b":
			return v.back(), false
		case "enter":
			return v.next(), false
		case " ":
			if len(v.fields) > 0 && v.fields[v.focus].isBool() {
				field := v.fields[v.focus].rule.Field
				v.set(field, form.Bool(!v.ctrl.Store().Get(field).Bool()))
				return nil, false
			}
		}
	}
	if len(v.fields) == 0 || v.fields[v.focus].isBool() {
		return nil, false
	}
	f := &v.fields[v.focus]
	before := f.input.Value()
	f.input, cmd = f.input.Update(msg)
	if after := f.input.Value(); after != before {
		switch f.rule.Kind {
		case form.KindList:
			v.set(f.rule.Field, form.List(form.SplitList(after)...))
		case form.KindFile:
			// Resolved when the step is left.
		default:
			v.set(f.rule.Field, form.Text(after))
		}
	}
	return cmd, false
}

func (v *wizardView) set(field string, value form.Value) {
	if err := v.ctrl.Set(field, value); err != nil {
		v.notice = err.Error()
	}
}

// commitFiles resolves file paths typed on the current step into references.
// It reports false if a path could not be opened.
func (v *wizardView) commitFiles() bool {
	ok := true
	var errs []form.FieldError
	for _, f := range v.fields {
		if f.rule.Kind != form.KindFile {
			continue
		}
		path := strings.TrimSpace(f.input.Value())
		if path == "" {
			v.set(f.rule.Field, form.Text(""))
			continue
		}
		if ref, found := v.ctrl.Store().Get(f.rule.Field).File(); found && ref.Path == path {
			continue
		}
		ref, err := form.OpenFile(path)
		if err != nil {
			errs = append(errs, form.FieldError{Field: f.rule.Field, Message: "File not found"})
			ok = false
			continue
		}
		v.set(f.rule.Field, form.File(ref))
	}
	if len(errs) > 0 {
		v.ctrl.Store().SetErrors(errs)
	}
	return ok
}

func (v *wizardView) next() tea.Cmd {
	v.notice = ""
	if !v.commitFiles() {
		v.notice = "Please fix the highlighted fields"
		return nil
	}
	if v.ctrl.Step() == v.ctrl.TotalSteps() {
		v.pending = true
		ctrl, ctx := v.ctrl, v.ctx
		submit := func() tea.Msg {
			outcome, err := ctrl.Next(ctx)
			return submitFinishedMsg{outcome: outcome, err: err}
		}
		return tea.Batch(v.spinner.Tick, submit)
	}
	_, err := v.ctrl.Next(v.ctx)
	if err != nil {
		v.showError(err)
		return nil
	}
	v.loadStep()
	return v.focusCmd()
}

func (v *wizardView) back() tea.Cmd {
	v.notice = ""
	v.commitFiles()
	if err := v.ctrl.Back(); err != nil {
		v.notice = err.Error()
		return nil
	}
	v.loadStep()
	return v.focusCmd()
}

// finish applies a submission result. It reports true when the account was created.
func (v *wizardView) finish(msg submitFinishedMsg) bool {
	v.pending = false
	if msg.err == nil {
		return msg.outcome == wizard.OutcomeSubmitted
	}
	v.showError(msg.err)
	return false
}

func (v *wizardView) showError(err error) {
	var verr *wizard.ValidationError
	var serr *wizard.SubmissionError
	switch {
	case errors.As(err, &verr):
		v.notice = "Please fix the highlighted fields"
		for i, f := range v.fields {
			if _, failed := verr.Field(f.rule.Field); failed {
				v.setFocus(i)
				break
			}
		}
	case errors.As(err, &serr):
		v.notice = fmt.Sprintf("Signup failed: %s. Press enter to try again.", submissionReason(serr.Err))
	default:
		v.notice = err.Error()
	}
}

func submissionReason(err error) string {
	switch {
	case errors.Is(err, account.ErrUnavailable):
		return "the account service is unavailable"
	case errors.Is(err, account.ErrDuplicateAccount):
		return "an account with this email already exists"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the request was interrupted"
	default:
		return err.Error()
	}
}

func (v *wizardView) view(width int) string {
	step := v.ctrl.Current()
	store := v.ctrl.Store()
	var b strings.Builder

	b.WriteString(headingStyle.Render(fmt.Sprintf("%s signup · Step %d of %d", v.flow.Title, step.Index, v.ctrl.TotalSteps())))
	b.WriteString("\n")
	b.WriteString(v.progress.ViewAs(v.ctrl.Progress()))
	b.WriteString("\n\n")
	b.WriteString(focusStyle.Render(step.Title))
	b.WriteString("\n")
	if step.Description != "" {
		b.WriteString(mutedStyle.Render(step.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, f := range v.fields {
		focused := i == v.focus
		label := f.rule.Label
		if label == "" {
			label = f.rule.Field
		}
		if f.rule.Required || f.rule.MustBeTrue || f.rule.MinItems > 0 {
			label += " *"
		}
		if f.isBool() {
			box := "[ ]"
			if store.Get(f.rule.Field).Bool() {
				box = "[x]"
			}
			line := fmt.Sprintf("%s %s", box, label)
			if focused {
				line = focusStyle.Render("› " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line)
		} else {
			if focused {
				b.WriteString(focusStyle.Render(label))
			} else {
				b.WriteString(label)
			}
			b.WriteString("\n")
			b.WriteString(f.input.View())
		}
		b.WriteString("\n")
		if msg, failed := store.Error(f.rule.Field); failed {
			b.WriteString(errorStyle.Render("  " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case v.pending:
		b.WriteString(v.spinner.View() + " Creating your account…")
		b.WriteString("\n")
	case v.notice != "":
		b.WriteString(errorStyle.Render(v.notice))
		b.WriteString("\n")
	}
	action := "enter continue"
	if step.Index == v.ctrl.TotalSteps() {
		action = "enter create account"
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("tab next field · space toggle · %s · ctrl+b back · esc discard", action)))
	return lipgloss.NewStyle().Width(max(20, width)).Render(b.String())
}
