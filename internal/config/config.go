// Package config handles configuration loading, validation, and management
// for hidmond.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete daemon configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Monitor configuration for HID hooks.
	Monitor MonitorConfig `toml:"monitor" json:"monitor" yaml:"monitor"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Storage configuration for the event-count store.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// IPC configuration for daemon control.
	IPC IPCConfig `toml:"ipc" json:"ipc" yaml:"ipc"`
}

// MonitorConfig selects which device types the daemon hooks.
type MonitorConfig struct {
	// Keyboard enables keyboard event monitoring.
	Keyboard bool `toml:"keyboard" json:"keyboard" yaml:"keyboard"`

	// Mouse enables mouse event monitoring.
	Mouse bool `toml:"mouse" json:"mouse" yaml:"mouse"`

	// DeviceGlobs restricts which input device nodes are opened
	// (Linux only). Patterns match the /dev/input path or the bare
	// node name, e.g. "/dev/input/event3" or "event*". Empty means
	// every device classified for the enabled types.
	DeviceGlobs []string `toml:"device_globs" json:"device_globs,omitempty" yaml:"device_globs,omitempty"`

	// PauseOnLock suspends monitoring while the desktop session is
	// locked (Linux only; requires a session bus).
	PauseOnLock bool `toml:"pause_on_lock" json:"pause_on_lock" yaml:"pause_on_lock"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the output format: text or json.
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is where logs go: stdout, stderr, file, or both.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file path when Output includes "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the log size in megabytes before rotation.
	MaxSizeMB int64 `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// StorageConfig holds event-count persistence configuration.
type StorageConfig struct {
	// Path is the SQLite database path. Empty disables persistence.
	Path string `toml:"path" json:"path" yaml:"path"`

	// FlushIntervalSec is how often in-memory counts are flushed to the
	// store.
	FlushIntervalSec int `toml:"flush_interval_sec" json:"flush_interval_sec" yaml:"flush_interval_sec"`
}

// IPCConfig holds daemon control socket configuration.
type IPCConfig struct {
	// Socket is the unix socket path the daemon listens on.
	Socket string `toml:"socket" json:"socket" yaml:"socket"`
}

// Default returns the default configuration.
func Default() *Config {
	dataDir := PlatformDataDir()
	return &Config{
		Version: Version,
		Monitor: MonitorConfig{
			Keyboard:    true,
			Mouse:       true,
			PauseOnLock: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
		Storage: StorageConfig{
			Path:             filepath.Join(dataDir, "hidmond.db"),
			FlushIntervalSec: 10,
		},
		IPC: IPCConfig{
			Socket: filepath.Join(dataDir, "hidmond.sock"),
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads and validates the configuration at path. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
		})
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q", c.Logging.Format),
		})
	}

	switch c.Logging.Output {
	case "", "stdout", "stderr", "file", "both":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("unknown output %q", c.Logging.Output),
		})
	}
	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when output includes file",
		})
	}

	for _, g := range c.Monitor.DeviceGlobs {
		if _, err := filepath.Match(g, ""); err != nil {
			errs = append(errs, ValidationError{
				Field:   "monitor.device_globs",
				Message: fmt.Sprintf("bad pattern %q: %v", g, err),
			})
		}
	}

	if c.Storage.FlushIntervalSec < 1 {
		errs = append(errs, ValidationError{
			Field:   "storage.flush_interval_sec",
			Message: "must be at least 1",
		})
	}

	if c.IPC.Socket == "" {
		errs = append(errs, ValidationError{
			Field:   "ipc.socket",
			Message: "must not be empty",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
