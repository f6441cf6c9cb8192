package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for tasker, stored in ~/.tasker/config.yaml.
type Config struct {
	Storage Storage `mapstructure:"storage"`
	UI      UI      `mapstructure:"ui"`
}

// Storage selects where the task and tier snapshots live.
type Storage struct {
	// Backend is "file" (one JSON file per snapshot) or "sqlite".
	Backend string `mapstructure:"backend"`
	// Dir is the data directory. A leading ~/ is expanded.
	Dir string `mapstructure:"dir"`
	// SQLiteFile is the database file, relative to Dir unless absolute.
	SQLiteFile string `mapstructure:"sqlite_file"`
}

// UI holds settings for the interactive widget.
type UI struct {
	// TickInterval is how often elapsed times are redrawn.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// LogFile receives diagnostics while the widget owns the terminal.
	// Relative paths are resolved against Storage.Dir.
	LogFile string `mapstructure:"log_file"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// DefaultSQLiteFile is the database name used by the sqlite backend.
	DefaultSQLiteFile = "tasker.db"
	// DefaultTickInterval is the widget refresh period.
	DefaultTickInterval = time.Second
	// DefaultLogFile is the widget log file name.
	DefaultLogFile = "tasker.log"
)

// envPrefix prefixes environment overrides, e.g. TASKER_STORAGE_BACKEND.
const envPrefix = "TASKER"

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig(home string) Config {
	return Config{
		Storage: Storage{
			Backend:    BackendFile,
			Dir:        filepath.Join(home, ".tasker", "data"),
			SQLiteFile: DefaultSQLiteFile,
		},
		UI: UI{
			TickInterval: DefaultTickInterval,
			LogFile:      DefaultLogFile,
		},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# tasker configuration – ~/.tasker/config.yaml
#
# All settings are optional; the defaults shown below work out of the box.
# Every key can also be set through the environment, e.g.
# TASKER_STORAGE_BACKEND=sqlite or TASKER_UI_TICK_INTERVAL=500ms.

storage:
  # Where tasks and story point tiers are kept.
  # • file   – one JSON snapshot per key in the data directory (default)
  # • sqlite – a single SQLite database in the data directory
  backend: file

  # Data directory. ~/ is expanded to your home directory.
  dir: ~/.tasker/data

  # Database file for the sqlite backend, relative to dir.
  sqlite_file: tasker.db

ui:
  # How often running timers are redrawn.
  tick_interval: 1s

  # Diagnostics are written here while the widget is open, relative to dir.
  log_file: tasker.log
`

// DefaultPath returns the path to ~/.tasker/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tasker", "config.yaml"), nil
}

// Load reads the config file at path (DefaultPath when empty), creating it
// with annotated defaults on first run. Environment variables override the
// file.
func Load(path string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultConfig(""), fmt.Errorf("cannot determine home directory: %w", err)
	}
	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return defaultConfig(home), err
		}
	}
	defaults := defaultConfig(home)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, defaults)

	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	} else if err := v.ReadInConfig(); err != nil {
		return defaults, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaults.Storage.Dir
	}
	if cfg.Storage.SQLiteFile == "" {
		cfg.Storage.SQLiteFile = defaults.Storage.SQLiteFile
	}
	if cfg.UI.TickInterval <= 0 {
		cfg.UI.TickInterval = defaults.UI.TickInterval
	}
	if cfg.UI.LogFile == "" {
		cfg.UI.LogFile = defaults.UI.LogFile
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir, home)

	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return cfg, fmt.Errorf("config file %s: unknown storage backend %q (want %q or %q)",
			path, cfg.Storage.Backend, BackendFile, BackendSQLite)
	}
	return cfg, nil
}

// LogPath returns the absolute path of the widget log file.
func (c Config) LogPath() string {
	if filepath.IsAbs(c.UI.LogFile) {
		return c.UI.LogFile
	}
	return filepath.Join(c.Storage.Dir, c.UI.LogFile)
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.sqlite_file", d.Storage.SQLiteFile)
	v.SetDefault("ui.tick_interval", d.UI.TickInterval)
	v.SetDefault("ui.log_file", d.UI.LogFile)
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
