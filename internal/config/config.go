// internal/config/config.go
//
// This package handles configuration and the .pickapad directory structure.
// The CLI creates a .pickapad/ folder in the directory it is run from.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/pickapad/internal/signup"
	"github.com/kingrea/pickapad/internal/validate"
)

const (
	// Dir is the name of the directory we create in the working directory
	Dir = ".pickapad"

	defaultDelay        = time.Second
	defaultSessionTTL   = 7 * 24 * time.Hour
	defaultSessionPath  = "state/session.json"
	defaultDatabasePath = "state/accounts.db"
	defaultLogLevel     = "info"
	defaultState        = "Texas"
	defaultMinLength    = 8
)

const defaultConfigYAML = `# pickapad configuration
version: 1

# Simulated account service.
gateway:
  delay: 1s
  # Set to true to make every signup fail with "service unavailable".
  simulate_failure: false

session:
  ttl: 168h
  path: state/session.json

accounts:
  database: state/accounts.db
  # Seeds test@pap.com so the login screen can be tried immediately.
  seed_demo_user: true

logging:
  level: info

signup:
  default_state: Texas
  password:
    min_length: 8
    require_symbol: true
`

// GatewaySettings configures the simulated account service.
type GatewaySettings struct {
	Delay           time.Duration `yaml:"delay"`
	SimulateFailure bool          `yaml:"simulate_failure"`
}

// SessionSettings configures session persistence.
type SessionSettings struct {
	TTL  time.Duration `yaml:"ttl"`
	Path string        `yaml:"path"`
}

// AccountSettings configures the account database.
type AccountSettings struct {
	Database     string `yaml:"database"`
	SeedDemoUser *bool  `yaml:"seed_demo_user,omitempty"`
}

// LoggingSettings configures diagnostics.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// PasswordSettings tunes the signup password policy.
type PasswordSettings struct {
	MinLength     int   `yaml:"min_length"`
	RequireSymbol *bool `yaml:"require_symbol,omitempty"`
}

// SignupSettings tunes the wizard flows.
type SignupSettings struct {
	DefaultState string           `yaml:"default_state"`
	Password     PasswordSettings `yaml:"password"`
}

// Settings models .pickapad/config.yaml.
type Settings struct {
	Version  int             `yaml:"version"`
	Gateway  GatewaySettings `yaml:"gateway"`
	Session  SessionSettings `yaml:"session"`
	Accounts AccountSettings `yaml:"accounts"`
	Logging  LoggingSettings `yaml:"logging"`
	Signup   SignupSettings  `yaml:"signup"`
}

// Config holds the runtime configuration.
type Config struct {
	// WorkDir is the directory pickapad was started from
	WorkDir string

	// Root is WorkDir/.pickapad
	Root string

	Settings Settings
}

// InitDir creates the .pickapad directory structure in workDir and writes a
// commented default config.yaml if none exists.
//
// Structure created:
// .pickapad/
// ├── config.yaml
// ├── logs/    <- pickapad.log and journey.log
// └── state/   <- session and account database
func InitDir(workDir string) error {
	root := filepath.Join(workDir, Dir)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: ensure %s: %w", dir, err)
		}
	}
	return ensureConfigFile(filepath.Join(root, "config.yaml"))
}

// Load reads workDir/.pickapad/config.yaml. A missing file yields defaults.
func Load(workDir string) (*Config, error) {
	cfg := &Config{
		WorkDir:  workDir,
		Root:     filepath.Join(workDir, Dir),
		Settings: defaultSettings(),
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.Root, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.Root, "state")
}

// ConfigPath returns the on-disk location for the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Root, "config.yaml")
}

// SessionPath returns the absolute path of the persisted session.
func (c *Config) SessionPath() string {
	return c.Settings.Session.Path
}

// DatabasePath returns the absolute path of the account database.
func (c *Config) DatabasePath() string {
	return c.Settings.Accounts.Database
}

// SeedDemoUser reports whether the demo account should be created.
func (c *Config) SeedDemoUser() bool {
	return boolOr(c.Settings.Accounts.SeedDemoUser, true)
}

// SignupOptions translates the signup settings into flow options.
func (c *Config) SignupOptions() signup.Options {
	policy := validate.DefaultPasswordPolicy()
	policy.MinLength = c.Settings.Signup.Password.MinLength
	policy.RequireSymbol = boolOr(c.Settings.Signup.Password.RequireSymbol, true)
	return signup.Options{
		DefaultState:   c.Settings.Signup.DefaultState,
		PasswordPolicy: policy,
	}
}

func (c *Config) load() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Settings.normalize(c.Root)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.Root)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Settings = parsed
	return nil
}

func defaultSettings() Settings {
	s := Settings{}
	s.applyDefaults()
	return s
}

func (s *Settings) applyDefaults() {
	if s.Version == 0 {
		s.Version = 1
	}
	if s.Gateway.Delay == 0 {
		s.Gateway.Delay = defaultDelay
	}
	if s.Session.TTL == 0 {
		s.Session.TTL = defaultSessionTTL
	}
	if strings.TrimSpace(s.Session.Path) == "" {
		s.Session.Path = defaultSessionPath
	}
	if strings.TrimSpace(s.Accounts.Database) == "" {
		s.Accounts.Database = defaultDatabasePath
	}
	if strings.TrimSpace(s.Logging.Level) == "" {
		s.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(s.Signup.DefaultState) == "" {
		s.Signup.DefaultState = defaultState
	}
	if s.Signup.Password.MinLength == 0 {
		s.Signup.Password.MinLength = defaultMinLength
	}
}

func (s *Settings) normalize(base string) {
	s.Session.Path = resolvePath(base, s.Session.Path)
	if s.Accounts.Database != ":memory:" {
		s.Accounts.Database = resolvePath(base, s.Accounts.Database)
	}
	s.Logging.Level = strings.ToLower(strings.TrimSpace(s.Logging.Level))
	s.Signup.DefaultState = strings.TrimSpace(s.Signup.DefaultState)
}

func (s *Settings) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if s.Gateway.Delay < 0 {
		return fmt.Errorf("gateway.delay must not be negative")
	}
	if s.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must not be negative")
	}
	switch s.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	if s.Signup.Password.MinLength < 6 || s.Signup.Password.MinLength > 100 {
		return fmt.Errorf("signup.password.min_length must be between 6 and 100")
	}
	return nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
