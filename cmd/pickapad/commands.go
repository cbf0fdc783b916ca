package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/pickapad/internal/account"
	"github.com/kingrea/pickapad/internal/form"
	"github.com/kingrea/pickapad/internal/signup"
	"github.com/kingrea/pickapad/internal/tui"
	"github.com/kingrea/pickapad/internal/validate"
)

type cli struct {
	workDir string
	verbose bool
	root    *cobra.Command
	rt      *runtime
}

func newCLI() *cli {
	c := &cli{}
	c.root = &cobra.Command{
		Use:   "pickapad",
		Short: "Pick-A-Pad onboarding: sign up or log in from the terminal",
		Long: `pickapad walks property management companies, contractors and retailers
through the Pick-A-Pad signup wizard, and keeps you signed in between runs.

Run without arguments to start the interactive interface.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			dir := c.workDir
			if dir == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting working directory: %w", err)
				}
				dir = cwd
			}
			rt, err := openRuntime(cmd.Context(), dir, c.verbose)
			if err != nil {
				return err
			}
			c.rt = rt
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd)
		},
	}
	c.root.PersistentFlags().StringVar(&c.workDir, "dir", "", "directory holding .pickapad (default: current directory)")
	c.root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "write debug diagnostics to .pickapad/logs/pickapad.log")

	c.root.AddCommand(
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.flowsCmd(),
	)
	return c
}

// execute runs the command tree and releases the runtime whether or not the
// command succeeded. cobra skips post-run hooks after a RunE error.
func (c *cli) execute() error {
	defer func() { c.rt.close() }()
	return c.root.Execute()
}

func (c *cli) runTUI(cmd *cobra.Command, opts ...tui.AppOption) error {
	opts = append([]tui.AppOption{tui.WithContext(cmd.Context())}, opts...)
	app, err := tui.NewApp(c.rt.deps(), opts...)
	if err != nil {
		return err
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func (c *cli) signupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup [company|contractor|retailer]",
		Short: "Open the signup wizard",
		Long: `Opens the signup wizard for the given account type. Without an argument
the account type picker is shown first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return c.runTUI(cmd, tui.WithTypeSelection())
			}
			t, err := signup.ParseAccountType(args[0])
			if err != nil {
				return err
			}
			return c.runTUI(cmd, tui.WithInitialFlow(t))
		},
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			values := form.Values{
				"email":    form.Text(strings.TrimSpace(email)),
				"password": form.Text(password),
			}
			if errs := validate.Check(tui.LoginStep, values); len(errs) > 0 {
				return errors.New(errs[0].Message)
			}
			res, err := c.rt.accounts.Login(cmd.Context(), values.Text("email"), password)
			if err != nil {
				if errors.Is(err, account.ErrInvalidCredentials) {
					c.rt.book.Warn("Login · rejected for %s", values.Text("email"))
					return errors.New("invalid email or password")
				}
				return err
			}
			if err := c.rt.sessions.Begin(res.Token, res.User.Profile()); err != nil {
				return err
			}
			c.rt.book.Info("Login · %s signed in", res.User.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", res.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.rt.sessions.Teardown(); err != nil {
				return err
			}
			c.rt.book.Info("Signed out")
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, ok := c.rt.sessions.Current()
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Not signed in")
				return nil
			}
			fmt.Fprintf(out, "%s <%s>\n", profile.Name, profile.Email)
			if profile.Organization != "" {
				fmt.Fprintf(out, "Organization: %s\n", profile.Organization)
			}
			fmt.Fprintf(out, "Account type: %s\nRole: %s\n", profile.AccountType, profile.Role)
			return nil
		},
	}
}

func (c *cli) flowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flows [type]",
		Short: "Print the signup steps and their fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := c.rt.registry.Types()
			if len(args) == 1 {
				t, err := signup.ParseAccountType(args[0])
				if err != nil {
					return err
				}
				types = []signup.AccountType{t}
			}
			for i, t := range types {
				flow, err := c.rt.registry.Lookup(t)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				printFlow(cmd.OutOrStdout(), flow)
			}
			return nil
		},
	}
}

func printFlow(w io.Writer, flow signup.Flow) {
	fmt.Fprintf(w, "%s (%s, %d steps)\n", flow.Title, flow.Type, flow.TotalSteps())
	for _, step := range flow.Steps {
		fmt.Fprintf(w, "  Step %d · %s\n", step.Index, step.Title)
		for _, rule := range step.Rules {
			marker := " "
			if rule.Required || rule.MustBeTrue || rule.MinItems > 0 {
				marker = "*"
			}
			line := fmt.Sprintf("    %s %-28s %s", marker, rule.Field, rule.Kind)
			if rule.DependsOn != "" {
				line += " when " + rule.DependsOn
			}
			fmt.Fprintln(w, line)
		}
	}
}
