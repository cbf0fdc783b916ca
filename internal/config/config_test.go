package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	workDir := t.TempDir()
	c, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Settings.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Settings.Version)
	}
	if c.Settings.Gateway.Delay != time.Second {
		t.Fatalf("expected 1s delay, got %s", c.Settings.Gateway.Delay)
	}
	if c.Settings.Session.TTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day ttl, got %s", c.Settings.Session.TTL)
	}
	want := filepath.Join(workDir, Dir, "state", "session.json")
	if c.SessionPath() != want {
		t.Fatalf("session path = %s, want %s", c.SessionPath(), want)
	}
	if !c.SeedDemoUser() {
		t.Fatalf("expected demo user seeding by default")
	}
	opts := c.SignupOptions()
	if opts.DefaultState != "Texas" || !opts.PasswordPolicy.RequireSymbol || opts.PasswordPolicy.MinLength != 8 {
		t.Fatalf("unexpected signup options: %+v", opts)
	}
}

func TestInitDirWritesParsableDefaults(t *testing.T) {
	workDir := t.TempDir()
	if err := InitDir(workDir); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, sub := range []string{"logs", "state"} {
		if info, err := os.Stat(filepath.Join(workDir, Dir, sub)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory, err=%v", sub, err)
		}
	}
	c, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load after InitDir: %v", err)
	}
	if c.Settings.Logging.Level != "info" {
		t.Fatalf("unexpected level %q", c.Settings.Logging.Level)
	}
	if err := InitDir(workDir); err != nil {
		t.Fatalf("InitDir should be idempotent: %v", err)
	}
}

func TestLoadParsesYaml(t *testing.T) {
	workDir := t.TempDir()
	root := filepath.Join(workDir, Dir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
gateway:
  delay: 250ms
  simulate_failure: true
session:
  ttl: 2h
  path: /tmp/pickapad-session.json
accounts:
  database: data/accounts.db
  seed_demo_user: false
logging:
  level: " DEBUG "
signup:
  default_state: " California "
  password:
    min_length: 12
    require_symbol: false
`)
	if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(workDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Settings.Gateway.Delay != 250*time.Millisecond || !c.Settings.Gateway.SimulateFailure {
		t.Fatalf("unexpected gateway settings: %+v", c.Settings.Gateway)
	}
	if c.SessionPath() != "/tmp/pickapad-session.json" {
		t.Fatalf("absolute session path should be kept, got %s", c.SessionPath())
	}
	if !strings.HasPrefix(c.DatabasePath(), root) {
		t.Fatalf("expected database path to be resolved under %s, got %s", root, c.DatabasePath())
	}
	if c.SeedDemoUser() {
		t.Fatalf("expected seeding to be disabled")
	}
	if c.Settings.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %q", c.Settings.Logging.Level)
	}
	opts := c.SignupOptions()
	if opts.DefaultState != "California" || opts.PasswordPolicy.MinLength != 12 || opts.PasswordPolicy.RequireSymbol {
		t.Fatalf("unexpected signup options: %+v", opts)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"level":      "logging:\n  level: loud\n",
		"min_length": "signup:\n  password:\n    min_length: 3\n",
		"delay":      "gateway:\n  delay: -1s\n",
		"syntax":     "gateway: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			workDir := t.TempDir()
			root := filepath.Join(workDir, Dir)
			if err := os.MkdirAll(root, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(root, "config.yaml"), []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(workDir)
			if err == nil || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}
