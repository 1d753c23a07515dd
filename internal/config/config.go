package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bezmoradi/keygrab/internal/keys"
)

const (
	configFileName = "config"
	configFileType = "toml"
	configDirName  = "keygrab"
	metricsSubDir  = "metrics"
	envPrefix      = "KEYGRAB"
)

// DefaultPrimaryShortcut starts and stops a session when nothing else is
// configured.
const DefaultPrimaryShortcut = "SUPER+ALT+D"

// Shortcut binds a key combination to shell commands.
type Shortcut struct {
	Shortcut  string `mapstructure:"shortcut"`
	OnPress   string `mapstructure:"on_press"`
	OnRelease string `mapstructure:"on_release"`
}

// Config represents the application configuration
type Config struct {
	Shortcuts []Shortcut `mapstructure:"shortcuts"`

	// Primary session shortcut and the commands run when a session starts
	// and stops.
	PrimaryShortcut string `mapstructure:"primary_shortcut"`
	SessionStart    string `mapstructure:"session_start"`
	SessionStop     string `mapstructure:"session_stop"`
	PushToTalk      bool   `mapstructure:"push_to_talk"`

	DevicePath string        `mapstructure:"device_path"`
	GrabKeys   bool          `mapstructure:"grab_keys"`
	Hotplug    bool          `mapstructure:"hotplug"`
	Debounce   time.Duration `mapstructure:"debounce"`
	Feedback   bool          `mapstructure:"feedback"`
	LogLevel   string        `mapstructure:"log_level"`

	// EventURL, when set, receives every shortcut and session event over a
	// websocket.
	EventURL string `mapstructure:"event_url"`
}

var defaults = map[string]any{
	"primary_shortcut": DefaultPrimaryShortcut,
	"session_start":    "",
	"session_stop":     "",
	"push_to_talk":     true,
	"device_path":      "",
	"grab_keys":        true,
	"hotplug":          true,
	"debounce":         "100ms",
	"feedback":         true,
	"log_level":        "info",
	"event_url":        "",
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"device_path":  "device",
	"grab_keys":    "grab",
	"hotplug":      "hotplug",
	"push_to_talk": "push-to-talk",
	"log_level":    "log-level",
}

// Dir returns the user's config directory for keygrab
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(base, configDirName), nil
}

// Path returns the full path to the default config file
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName+"."+configFileType), nil
}

// MetricsDir returns the metrics directory path
func MetricsDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, metricsSubDir), nil
}

// Load reads configuration. Precedence, highest first: changed flags,
// KEYGRAB_* environment (a .env file in the working directory included),
// the config file, defaults. configFile may be empty; an explicit file must
// exist.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configFileName)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Validate checks every combination and setting, reporting all problems at
// once.
func (c *Config) Validate() error {
	var errs []error

	if c.PrimaryShortcut != "" {
		if _, err := keys.ParseCombination(c.PrimaryShortcut); err != nil {
			errs = append(errs, fmt.Errorf("primary_shortcut: %w", err))
		}
	}
	for i, s := range c.Shortcuts {
		if _, err := keys.ParseCombination(s.Shortcut); err != nil {
			errs = append(errs, fmt.Errorf("shortcuts[%d]: %w", i, err))
		}
		if strings.TrimSpace(s.OnPress) == "" {
			errs = append(errs, fmt.Errorf("shortcuts[%d] (%s): on_press is required", i, s.Shortcut))
		}
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	if _, err := clog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.EventURL != "" {
		if u, err := url.Parse(c.EventURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, fmt.Errorf("event_url must be a ws:// or wss:// URL, got %q", c.EventURL))
		}
	}
	return errors.Join(errs...)
}

// WriteDefault writes a starter config file to path. It refuses to overwrite
// an existing file.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	v := newViper()
	v.Set("shortcuts", []map[string]string{
		{"shortcut": "ctrl+alt+t", "on_press": "x-terminal-emulator", "on_release": ""},
	})
	if err := v.SafeWriteConfigAs(path); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}
