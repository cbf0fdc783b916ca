package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingrea/pickapad/internal/account"
)

func testDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, ".pickapad")
	require.NoError(t, os.MkdirAll(root, 0o755))
	cfg := "version: 1\ngateway:\n  delay: 1ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config.yaml"), []byte(cfg), 0o644))
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLI(t, dir, args...)
	return out, err
}

func runCLI(t *testing.T, dir string, args ...string) (string, *cli, error) {
	t.Helper()
	c := newCLI()
	var out bytes.Buffer
	c.root.SetOut(&out)
	c.root.SetErr(&out)
	c.root.SetArgs(append([]string{"--dir", dir}, args...))
	err := c.execute()
	return out.String(), c, err
}

func TestFlowsListsAllTypes(t *testing.T) {
	dir := testDir(t)
	out, err := run(t, dir, "flows")
	require.NoError(t, err)
	require.Contains(t, out, "Property Management Company (company, 8 steps)")
	require.Contains(t, out, "(contractor, 6 steps)")
	require.Contains(t, out, "(retailer, 6 steps)")
	require.Contains(t, out, "eVerificationNumber")
	require.Contains(t, out, "when isEVerified")

	out, err = run(t, dir, "flows", "realtor")
	require.NoError(t, err)
	require.NotContains(t, out, "company,")
	require.Contains(t, out, "retailer, 6 steps")

	_, err = run(t, dir, "flows", "landlord")
	require.Error(t, err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	dir := testDir(t)

	out, err := run(t, dir, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not signed in")

	_, err = run(t, dir, "login", "--email", account.DemoEmail, "--password", "nope-nope")
	require.ErrorContains(t, err, "invalid email or password")

	out, err = run(t, dir, "login", "--email", account.DemoEmail, "--password", account.DemoPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in as test@pap.com")

	out, err = run(t, dir, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "John Doe <test@pap.com>")
	require.Contains(t, out, "PAP Technologies")

	out, err = run(t, dir, "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out")

	out, err = run(t, dir, "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not signed in")

	journal, err := os.ReadFile(filepath.Join(dir, ".pickapad", "logs", "journey.log"))
	require.NoError(t, err)
	require.True(t, strings.Contains(string(journal), "Login · test@pap.com signed in"))
}

func TestLoginValidatesInput(t *testing.T) {
	dir := testDir(t)
	_, err := run(t, dir, "login", "--email", "not-an-email", "--password", "whatever")
	require.ErrorContains(t, err, "Please enter a valid email address")

	_, err = run(t, dir, "login", "--email", account.DemoEmail)
	require.Error(t, err)
}

func TestFailedCommandReleasesRuntime(t *testing.T) {
	dir := testDir(t)
	_, c, err := runCLI(t, dir, "login", "--email", account.DemoEmail, "--password", "wrong-pass")
	require.Error(t, err)
	require.NotNil(t, c.rt, "runtime should have been opened before the command failed")
	require.True(t, c.rt.closed, "runtime must be closed after a failed command")

	_, c, err = runCLI(t, dir, "whoami")
	require.NoError(t, err)
	require.True(t, c.rt.closed)
}
