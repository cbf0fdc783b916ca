package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"

	"github.com/kingrea/pickapad/internal/account"
	"github.com/kingrea/pickapad/internal/config"
	"github.com/kingrea/pickapad/internal/logbook"
	"github.com/kingrea/pickapad/internal/session"
	"github.com/kingrea/pickapad/internal/signup"
	"github.com/kingrea/pickapad/internal/wizard"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

type testEnv struct {
	app      *App
	accounts *account.Service
	sessions *session.Context
	book     *logbook.Logbook
}

func newTestApp(t *testing.T, accountOpts []account.Option, opts ...AppOption) *testEnv {
	t.Helper()
	workDir := t.TempDir()
	if err := config.InitDir(workDir); err != nil {
		t.Fatalf("init dir: %v", err)
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	repo, err := account.OpenRepository(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	accounts, err := account.NewService(repo, append([]account.Option{account.WithDelay(0)}, accountOpts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	sessions, err := session.New(session.NewFileStore(cfg.SessionPath()))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sessions.Init(); err != nil {
		t.Fatalf("init session: %v", err)
	}
	book, err := logbook.New(filepath.Join(cfg.LogsDir(), logbook.FileName))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	app, err := NewApp(Deps{
		Config:   cfg,
		Registry: signup.DefaultRegistry(cfg.SignupOptions()),
		Accounts: accounts,
		Sessions: sessions,
		Logbook:  book,
	}, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return &testEnv{app: app, accounts: accounts, sessions: sessions, book: book}
}

// runCommands executes cmd and any batched follow-ups, feeding submission and
// login results back into the app. Cursor blinks and spinner ticks are dropped.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case submitFinishedMsg, loginFinishedMsg:
			nextModel, nextCmd := app.Update(msg)
			app, ok = nextModel.(*App)
			if !ok {
				t.Fatalf("unexpected model type: %T", nextModel)
			}
			queue = append(queue, nextCmd)
		}
	}
	return app
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+b":
		return tea.KeyMsg{Type: tea.KeyCtrlB}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func press(t *testing.T, app *App, key string) (*App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(keyMsg(key))
	next, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	return next, cmd
}

// fill types text into the named fields of the current wizard step and
// toggles the named bool fields on.
func fill(t *testing.T, app *App, text map[string]string, toggles ...string) {
	t.Helper()
	if app.wizard == nil {
		t.Fatalf("wizard not open")
	}
	for i, f := range app.wizard.fields {
		if value, ok := text[f.rule.Field]; ok {
			app.wizard.setFocus(i)
			press(t, app, value)
		}
		for _, name := range toggles {
			if f.rule.Field == name {
				app.wizard.setFocus(i)
				press(t, app, "space")
			}
		}
	}
}

func fillRetailerSteps(t *testing.T, app *App) {
	t.Helper()
	pages := []map[string]string{
		{"businessName": "Corner Supply", "ein": "98-7654321"},
		{
			"contactName": "Lee Park", "contactTitle": "Owner", "email": "lee@corner.shop",
			"phone": "(512) 555-0188", "address": "100 Main Street", "city": "Austin", "zipCode": "78701",
		},
		{"serviceCategories": "appliances, flooring", "serviceDescription": "Appliance sales and install"},
		{"serviceArea": "Austin", "yearsInBusiness": "6"},
		{"password": "Abcdef1!", "confirmPassword": "Abcdef1!"},
	}
	for i, page := range pages {
		var toggles []string
		if i == 4 {
			toggles = []string{"termsAccepted"}
		}
		fill(t, app, page, toggles...)
		press(t, app, "enter")
		if got := app.wizard.ctrl.Step(); got != i+2 {
			t.Fatalf("after page %d expected step %d, got %d (errors %v)", i+1, i+2, got, app.wizard.ctrl.Store().Errors())
		}
	}
}

func TestMainMenuReflectsSession(t *testing.T) {
	env := newTestApp(t, nil)
	first, ok := env.app.mainMenu.Items()[0].(menuItem)
	if !ok || first.id != "signup" {
		t.Fatalf("expected sign up first for anonymous users, got %+v", env.app.mainMenu.Items()[0])
	}
	if err := env.sessions.Begin("tok", session.Profile{Email: "dana@acme.com"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	env.app.refreshMainMenu()
	first = env.app.mainMenu.Items()[0].(menuItem)
	if first.id != "dashboard" {
		t.Fatalf("expected dashboard first when signed in, got %s", first.id)
	}
}

func TestRetailerSignupThroughKeys(t *testing.T) {
	env := newTestApp(t, nil, WithInitialFlow(signup.Retailer))
	app := env.app
	if app.state != stateWizard {
		t.Fatalf("expected wizard state, got %d", app.state)
	}
	fillRetailerSteps(t, app)
	if !strings.Contains(app.View(), "Step 6 of 6") {
		t.Fatalf("expected final step header in view")
	}
	app, cmd := press(t, app, "enter")
	if !app.wizard.pending {
		t.Fatalf("expected submission to be pending")
	}
	app = runCommands(t, app, cmd)
	if app.state != stateDashboard {
		t.Fatalf("expected dashboard after signup, got %d", app.state)
	}
	profile, ok := env.sessions.Current()
	if !ok || profile.Email != "lee@corner.shop" || profile.Organization != "Corner Supply" {
		t.Fatalf("unexpected session profile: %+v ok=%v", profile, ok)
	}
	if !strings.Contains(app.View(), "Welcome, Lee Park") {
		t.Fatalf("dashboard should greet the new user")
	}
	lines, _ := env.book.Tail(20)
	if !strings.Contains(strings.Join(lines, "\n"), "account created") {
		t.Fatalf("journal missing account creation: %v", lines)
	}
}

func TestWizardValidationKeepsStep(t *testing.T) {
	env := newTestApp(t, nil, WithInitialFlow(signup.Company))
	app, _ := press(t, env.app, "enter")
	if got := app.wizard.ctrl.Step(); got != 1 {
		t.Fatalf("expected to stay on step 1, got %d", got)
	}
	if !strings.Contains(app.View(), "Company name is required") {
		t.Fatalf("expected inline error, view:\n%s", app.View())
	}
	fill(t, app, map[string]string{"companyName": "Acme LLC"})
	if _, failed := app.wizard.ctrl.Store().Error("companyName"); failed {
		t.Fatalf("editing a field should clear its error")
	}
	app, _ = press(t, app, "enter")
	fill(t, app, map[string]string{"ein": "12345"})
	app, _ = press(t, app, "enter")
	if got := app.wizard.ctrl.Step(); got != 2 {
		t.Fatalf("malformed EIN must block step 2, got step %d", got)
	}
	if msg, _ := app.wizard.ctrl.Store().Error("ein"); msg != "EIN must be in format XX-XXXXXXX" {
		t.Fatalf("unexpected EIN error %q", msg)
	}
}

func TestWizardBackKeepsValues(t *testing.T) {
	env := newTestApp(t, nil, WithInitialFlow(signup.Company))
	app := env.app
	fill(t, app, map[string]string{"companyName": "Acme LLC"})
	app, _ = press(t, app, "enter")
	app, _ = press(t, app, "ctrl+b")
	if got := app.wizard.ctrl.Step(); got != 1 {
		t.Fatalf("expected step 1 after back, got %d", got)
	}
	if got := app.wizard.fields[0].input.Value(); got != "Acme LLC" {
		t.Fatalf("expected value restored into input, got %q", got)
	}
	app, _ = press(t, app, "ctrl+b")
	if got := app.wizard.ctrl.Step(); got != 1 {
		t.Fatalf("back on step 1 must stay on step 1, got %d", got)
	}
}

func TestWizardEscDiscardsToTypeSelection(t *testing.T) {
	env := newTestApp(t, nil, WithInitialFlow(signup.Contractor))
	fill(t, env.app, map[string]string{"firstName": "Sam"})
	ctrl := env.app.wizard.ctrl
	app, _ := press(t, env.app, "esc")
	if app.state != stateTypeSelect || app.wizard != nil {
		t.Fatalf("expected type selection after esc, got state %d", app.state)
	}
	if ctrl.State() != wizard.StateDiscarded {
		t.Fatalf("expected discarded controller, got %s", ctrl.State())
	}
}

func TestSubmissionFailureKeepsFinalStep(t *testing.T) {
	env := newTestApp(t, []account.Option{account.WithFailure(func() bool { return true })}, WithInitialFlow(signup.Retailer))
	app := env.app
	fillRetailerSteps(t, app)
	app, cmd := press(t, app, "enter")
	app = runCommands(t, app, cmd)
	if app.state != stateWizard {
		t.Fatalf("expected to remain in the wizard, got %d", app.state)
	}
	if app.wizard.ctrl.State() != wizard.StateFailed || app.wizard.ctrl.Step() != 6 {
		t.Fatalf("expected failed on step 6, got %s step %d", app.wizard.ctrl.State(), app.wizard.ctrl.Step())
	}
	if !strings.Contains(app.wizard.notice, "unavailable") {
		t.Fatalf("expected unavailable notice, got %q", app.wizard.notice)
	}
	if got := app.wizard.ctrl.Store().Get("businessName").String(); got != "Corner Supply" {
		t.Fatalf("values must survive a failed submission, got %q", got)
	}
	if env.sessions.Authenticated() {
		t.Fatalf("failed signup must not start a session")
	}
}

func TestLoginWithDemoAccount(t *testing.T) {
	env := newTestApp(t, nil)
	if err := env.accounts.SeedDemo(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	app := env.app
	app.mainMenu.Select(1)
	app, _ = press(t, app, "enter")
	if app.state != stateLogin {
		t.Fatalf("expected login screen, got %d", app.state)
	}
	app, _ = press(t, app, account.DemoEmail)
	app, _ = press(t, app, "enter")
	app, _ = press(t, app, "wrong-pass")
	app, cmd := press(t, app, "enter")
	app = runCommands(t, app, cmd)
	if app.state != stateLogin || app.login.notice != "Invalid email or password" {
		t.Fatalf("expected rejection, state %d notice %q", app.state, app.login.notice)
	}

	app, _ = press(t, app, account.DemoPassword)
	app, cmd = press(t, app, "enter")
	app = runCommands(t, app, cmd)
	if app.state != stateDashboard {
		t.Fatalf("expected dashboard after login, got %d", app.state)
	}
	profile, ok := env.sessions.Current()
	if !ok || profile.Role != "admin" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestLoginValidatesBeforeCallingService(t *testing.T) {
	env := newTestApp(t, nil)
	app := env.app
	app.mainMenu.Select(1)
	app, _ = press(t, app, "enter")
	app, _ = press(t, app, "not-an-email")
	app, _ = press(t, app, "enter")
	app, cmd := press(t, app, "enter")
	if cmd != nil {
		t.Fatalf("invalid input must not start a login")
	}
	if app.login.errors["email"] != "Please enter a valid email address" {
		t.Fatalf("unexpected email error %q", app.login.errors["email"])
	}
	if app.login.errors["password"] != "Password is required" {
		t.Fatalf("unexpected password error %q", app.login.errors["password"])
	}
}

func TestLogoutFromMenu(t *testing.T) {
	env := newTestApp(t, nil)
	if err := env.sessions.Begin("tok", session.Profile{Email: "dana@acme.com"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	app := env.app
	app.refreshMainMenu()
	app.mainMenu.Select(1)
	app, _ = press(t, app, "enter")
	if env.sessions.Authenticated() {
		t.Fatalf("expected session to be cleared")
	}
	if app.statusMsg != "Signed out" {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
}

func TestDashboardShowsGatewaySettings(t *testing.T) {
	env := newTestApp(t, nil)
	if err := env.sessions.Begin("pap_test", session.Profile{Email: "lee@corner.shop", Name: "Lee Park", AccountType: "retailer", Role: "user"}); err != nil {
		t.Fatalf("begin: %v", err)
	}
	app := env.app
	app.state = stateDashboard
	if view := app.View(); !strings.Contains(view, "local, 1s delay") {
		t.Fatalf("dashboard should show the configured gateway delay:\n%s", view)
	}
	app.config.Settings.Gateway.SimulateFailure = true
	if view := app.View(); !strings.Contains(view, "simulated outage") {
		t.Fatalf("dashboard should show the simulated outage:\n%s", view)
	}
}
