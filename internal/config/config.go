// Package config handles the XDG configuration directory and the
// environment-driven settings of the client.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"todo/internal/auth"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// EnvFile is the optional dotenv file read from the config directory
	// and the working directory.
	EnvFile = ".env"
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// Settings are read from TODO_* environment variables.
type Settings struct {
	AuthDomain   string        `env:"TODO_AUTH_DOMAIN"`
	ClientID     string        `env:"TODO_CLIENT_ID"`
	RedirectURI  string        `env:"TODO_REDIRECT_URI"  envDefault:"http://localhost:8085/callback"`
	LogoutURI    string        `env:"TODO_LOGOUT_URI"`
	ResponseType string        `env:"TODO_RESPONSE_TYPE" envDefault:"token id_token"`
	Scopes       []string      `env:"TODO_SCOPES"        envDefault:"openid,email" envSeparator:","`
	APIBase      string        `env:"TODO_API_BASE"`
	APITimeout   time.Duration `env:"TODO_API_TIMEOUT"   envDefault:"10s"`
	MaxRetries   int           `env:"TODO_MAX_RETRIES"   envDefault:"0"`
	SessionStore string        `env:"TODO_SESSION_STORE" envDefault:"file"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{Dir: dir}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnvPath returns the path to the config directory's dotenv file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// Load reads the settings. Dotenv files never override variables that are
// already set, so the process environment wins, then ./.env, then the
// config directory's .env, then the defaults.
func (c *Config) Load() (*Settings, error) {
	for _, path := range []string{EnvFile, c.EnvPath()} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &s, nil
}

// Validate checks that the settings can drive a session.
func (s *Settings) Validate() error {
	if s.ClientID == "" {
		return errors.New("TODO_CLIENT_ID is not set")
	}
	if err := validateURL("TODO_AUTH_DOMAIN", s.AuthDomain); err != nil {
		return err
	}
	if err := validateURL("TODO_REDIRECT_URI", s.RedirectURI); err != nil {
		return err
	}
	if s.LogoutURI != "" {
		if err := validateURL("TODO_LOGOUT_URI", s.LogoutURI); err != nil {
			return err
		}
	}
	if err := validateURL("TODO_API_BASE", s.APIBase); err != nil {
		return err
	}

	switch s.ResponseType {
	case "token", "token id_token", "id_token token":
	default:
		return fmt.Errorf("TODO_RESPONSE_TYPE must be \"token\" or \"token id_token\", got: %q", s.ResponseType)
	}
	switch s.SessionStore {
	case StoreFile, StoreMemory:
	default:
		return fmt.Errorf("TODO_SESSION_STORE must be %q or %q, got: %q", StoreFile, StoreMemory, s.SessionStore)
	}
	if s.APITimeout <= 0 {
		return fmt.Errorf("TODO_API_TIMEOUT must be positive, got: %s", s.APITimeout)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("TODO_MAX_RETRIES must not be negative, got: %d", s.MaxRetries)
	}
	return nil
}

// Provider returns the identity-provider parameters.
func (s *Settings) Provider() auth.Provider {
	return auth.Provider{
		Domain:       s.AuthDomain,
		ClientID:     s.ClientID,
		RedirectURI:  s.RedirectURI,
		LogoutURI:    s.LogoutURI,
		ResponseType: s.ResponseType,
		Scopes:       s.Scopes,
	}
}

func validateURL(name, rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%s is not set", name)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
