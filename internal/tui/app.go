// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for pickapad.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/pickapad/internal/account"
	"github.com/kingrea/pickapad/internal/config"
	"github.com/kingrea/pickapad/internal/logbook"
	"github.com/kingrea/pickapad/internal/session"
	"github.com/kingrea/pickapad/internal/signup"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu   appState = iota // Sign up / log in / dashboard / exit
	stateTypeSelect                 // Account type picker before the wizard
	stateWizard                     // Walking through a signup flow
	stateLogin                      // Email and password form
	stateDashboard                  // Signed-in landing screen
)

const journalLines = 8

// Deps are the services the App drives.
type Deps struct {
	Config   *config.Config
	Registry *signup.Registry
	Accounts *account.Service
	Sessions *session.Context
	Logbook  *logbook.Logbook
	Logger   *zap.Logger
}

// AppOption customizes App construction for tests and alternate entry points.
type AppOption func(*App)

// WithInitialFlow opens the wizard for t immediately.
func WithInitialFlow(t signup.AccountType) AppOption {
	return func(a *App) {
		a.initialFlow = t
	}
}

// WithTypeSelection opens the account type picker instead of the main menu.
func WithTypeSelection() AppOption {
	return func(a *App) {
		a.state = stateTypeSelect
	}
}

// WithContext sets the context used for submissions and logins.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state    appState
	ctx      context.Context
	config   *config.Config
	registry *signup.Registry
	accounts *account.Service
	sessions *session.Context
	logbook  *logbook.Logbook
	logger   *zap.Logger

	initialFlow signup.AccountType

	// UI components
	mainMenu  list.Model
	typeMenu  list.Model
	wizard    *wizardView
	login     *loginView
	statusMsg string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	id    string
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates a new App instance
func NewApp(deps Deps, opts ...AppOption) (*App, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("tui: flow registry is required")
	}
	if deps.Accounts == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("tui: account service and session are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mainMenu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ PICK-A-PAD"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)

	typeMenu := list.New(buildTypeMenu(deps.Registry), list.NewDefaultDelegate(), 0, 0)
	typeMenu.Title = "Choose your account type"
	typeMenu.SetShowStatusBar(false)
	typeMenu.SetFilteringEnabled(false)

	app := &App{
		state:    stateMainMenu,
		ctx:      context.Background(),
		config:   deps.Config,
		registry: deps.Registry,
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		logbook:  deps.Logbook,
		logger:   logger,
		mainMenu: mainMenu,
		typeMenu: typeMenu,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.refreshMainMenu()
	if app.initialFlow != "" {
		if err := app.openWizard(app.initialFlow); err != nil {
			return nil, err
		}
	}
	if profile, ok := app.sessions.Current(); ok {
		app.logInfo("Session restored · %s", profile.Email)
	}
	return app, nil
}

// buildMainMenu creates the main menu items based on whether a user is signed in
func buildMainMenu(authenticated bool) []list.Item {
	if authenticated {
		return []list.Item{
			menuItem{id: "dashboard", title: "Dashboard", desc: "Your account overview"},
			menuItem{id: "logout", title: "Sign Out", desc: "Forget the saved session"},
			menuItem{id: "exit", title: "Exit", desc: "Leave pickapad"},
		}
	}
	return []list.Item{
		menuItem{id: "signup", title: "Sign Up", desc: "Create a company, contractor or retailer account"},
		menuItem{id: "login", title: "Log In", desc: "Use an existing account"},
		menuItem{id: "exit", title: "Exit", desc: "Leave pickapad"},
	}
}

func buildTypeMenu(reg *signup.Registry) []list.Item {
	items := []list.Item{}
	for _, t := range reg.Types() {
		flow, err := reg.Lookup(t)
		if err != nil {
			continue
		}
		items = append(items, menuItem{
			id:    string(t),
			title: flow.Title,
			desc:  fmt.Sprintf("%s · %d steps", flow.Description, flow.TotalSteps()),
		})
	}
	return items
}

func (a *App) refreshMainMenu() {
	a.mainMenu.SetItems(buildMainMenu(a.sessions.Authenticated()))
	a.mainMenu.Select(0)
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.typeMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		if a.wizard != nil {
			a.wizard.resize(msg.Width)
		}
		return a, nil

	case submitFinishedMsg:
		if a.wizard == nil {
			return a, nil
		}
		if a.wizard.finish(msg) {
			return a.completeSignup()
		}
		return a, nil

	case loginFinishedMsg:
		if a.login == nil {
			return a, nil
		}
		if a.login.finish(msg) {
			return a.completeLogin(msg.result)
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu || a.state == stateDashboard {
				return a, tea.Quit
			}
		case "esc":
			switch a.state {
			case stateTypeSelect, stateLogin, stateDashboard:
				return a.returnToMainMenu()
			}
		case "enter":
			switch a.state {
			case stateMainMenu:
				return a.handleMainMenuSelection()
			case stateTypeSelect:
				return a.handleTypeSelection()
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateMainMenu:
		a.mainMenu, cmd = a.mainMenu.Update(msg)
	case stateTypeSelect:
		a.typeMenu, cmd = a.typeMenu.Update(msg)
	case stateWizard:
		if a.wizard != nil {
			var leave bool
			cmd, leave = a.wizard.update(msg)
			if leave {
				return a.returnToTypeSelection()
			}
		}
	case stateLogin:
		if a.login != nil {
			cmd = a.login.update(msg)
		}
	}
	return a, cmd
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	switch item.id {
	case "signup":
		a.logInfo("Menu · Sign Up selected")
		a.state = stateTypeSelect
		a.statusMsg = "Select the kind of account to create"
		return a, nil
	case "login":
		a.logInfo("Menu · Log In selected")
		a.login = newLoginView(a.ctx, a.accounts)
		a.state = stateLogin
		a.statusMsg = ""
		return a, a.login.focusCmd()
	case "dashboard":
		a.state = stateDashboard
		return a, nil
	case "logout":
		return a.logout()
	case "exit":
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleTypeSelection() (tea.Model, tea.Cmd) {
	item, ok := a.typeMenu.SelectedItem().(menuItem)
	if !ok {
		a.statusMsg = "Account type unavailable"
		return a, nil
	}
	if err := a.openWizard(signup.AccountType(item.id)); err != nil {
		a.statusMsg = fmt.Sprintf("Could not start signup: %v", err)
		return a, nil
	}
	return a, a.wizard.focusCmd()
}

func (a *App) openWizard(t signup.AccountType) error {
	flow, err := a.registry.Lookup(t)
	if err != nil {
		return err
	}
	gateway := account.NewGateway(t, a.accounts, a.sessions, a.logger)
	view, err := newWizardView(a.ctx, flow, gateway, a.logbook, a.logger)
	if err != nil {
		return err
	}
	view.resize(a.width)
	a.wizard = view
	a.state = stateWizard
	a.statusMsg = ""
	a.logInfo("Signup · %s started (%d steps)", flow.Title, flow.TotalSteps())
	return nil
}

func (a *App) completeSignup() (tea.Model, tea.Cmd) {
	res := a.wizard.gateway.Result()
	a.logInfo("Signup · account created for %s", res.User.Email)
	a.wizard = nil
	a.refreshMainMenu()
	a.state = stateDashboard
	a.statusMsg = "Account created successfully · Welcome to the platform!"
	return a, nil
}

func (a *App) completeLogin(res account.Result) (tea.Model, tea.Cmd) {
	if err := a.sessions.Begin(res.Token, res.User.Profile()); err != nil {
		a.logger.Error("start session", zap.Error(err))
		a.login.notice = fmt.Sprintf("Could not save session: %v", err)
		return a, nil
	}
	a.logInfo("Login · %s signed in", res.User.Email)
	a.login = nil
	a.refreshMainMenu()
	a.state = stateDashboard
	a.statusMsg = fmt.Sprintf("Welcome back, %s", firstNonEmpty(res.User.Name, res.User.Email))
	return a, nil
}

func (a *App) logout() (tea.Model, tea.Cmd) {
	if err := a.sessions.Teardown(); err != nil {
		a.statusMsg = fmt.Sprintf("Sign out failed: %v", err)
		a.logWarn("Sign out failed: %v", err)
		return a, nil
	}
	a.logInfo("Signed out")
	a.statusMsg = "Signed out"
	a.refreshMainMenu()
	a.state = stateMainMenu
	return a, nil
}

func (a *App) returnToTypeSelection() (tea.Model, tea.Cmd) {
	if a.wizard != nil {
		a.logInfo("Signup · %s discarded on step %d", a.wizard.flow.Title, a.wizard.ctrl.Step())
	}
	a.wizard = nil
	a.state = stateTypeSelect
	a.statusMsg = "Signup discarded"
	return a, nil
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.login = nil
	a.refreshMainMenu()
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateTypeSelect:
		content = a.typeMenu.View()
	case stateWizard:
		if a.wizard != nil {
			content = a.wizard.view(leftWidth)
		}
	case stateLogin:
		if a.login != nil {
			content = a.login.view()
		}
	case stateDashboard:
		content = a.renderDashboard()
	}

	header := titleStyle.Render("⬡ PICK-A-PAD")
	if a.statusMsg != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, statusStyle.Render(a.statusMsg))
	}
	left := lipgloss.NewStyle().Width(leftWidth).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", content))
	if rightWidth == 0 {
		return left
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", a.renderLogPanel(rightWidth))
}

func (a *App) renderDashboard() string {
	profile, ok := a.sessions.Current()
	if !ok {
		return mutedStyle.Render("Not signed in. Press esc to return to the menu.")
	}
	rows := []string{
		headingStyle.Render(fmt.Sprintf("Welcome, %s", firstNonEmpty(profile.Name, profile.Email))),
		"",
		fmt.Sprintf("Email         %s", profile.Email),
		fmt.Sprintf("Organization  %s", firstNonEmpty(profile.Organization, "n/a")),
		fmt.Sprintf("Account type  %s", titleCase(profile.AccountType)),
		fmt.Sprintf("Role          %s", profile.Role),
		fmt.Sprintf("Member since  %s", profile.CreatedAt.Local().Format("Jan 2, 2006")),
	}
	if a.config != nil {
		rows = append(rows,
			"",
			mutedStyle.Render(fmt.Sprintf("Gateway       %s", gatewaySummary(a.config.Settings.Gateway))),
			mutedStyle.Render(fmt.Sprintf("Session file  %s", a.config.SessionPath())),
		)
	}
	rows = append(rows, "", mutedStyle.Render("esc menu · q quit"))
	return boxStyle.Render(strings.Join(rows, "\n"))
}

func gatewaySummary(g config.GatewaySettings) string {
	if g.SimulateFailure {
		return "simulated outage"
	}
	if g.Delay <= 0 {
		return "local, no delay"
	}
	return fmt.Sprintf("local, %s delay", g.Delay)
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(journalLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		entry, ok := logbook.Parse(line)
		if !ok {
			rendered = append(rendered, line)
			continue
		}
		style := journalInfoStyle
		switch entry.Level {
		case logbook.LevelWarn:
			style = journalWarnStyle
		case logbook.LevelError:
			style = errorStyle
		}
		rendered = append(rendered, style.Render(entry.Time.Local().Format("15:04")+" "+entry.Message))
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("JOURNAL · %s (%d)", fileName, total))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-2)).
		Render(head + "\n" + strings.Join(rendered, "\n"))
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
