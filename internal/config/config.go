package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the top-level triage configuration.
type Config struct {
	User      UserConfig      `toml:"user"`
	View      ViewConfig      `toml:"view"`
	Store     StoreConfig     `toml:"store"`
	Reminder  ReminderConfig  `toml:"reminder"`
	Analytics AnalyticsConfig `toml:"analytics"`
}

type UserConfig struct {
	Name string `toml:"name"`
}

// AnalyticsConfig controls anonymous usage analytics.
type AnalyticsConfig struct {
	// Enabled controls whether anonymous analytics are sent.
	// Defaults to true when not set in config (opt-out model).
	Enabled *bool `toml:"enabled,omitempty"`
}

// IsEnabled returns whether analytics are enabled.
// Treats nil (missing from config) as true — opt-out, not opt-in.
func (a AnalyticsConfig) IsEnabled() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// ViewConfig controls how task lists are presented by default.
type ViewConfig struct {
	// DefaultFilter is applied when a command gets no explicit filter:
	// all, active or completed. Unrecognized values behave as all.
	DefaultFilter string `toml:"default_filter"`
}

// StoreConfig points at the task database.
type StoreConfig struct {
	// Path overrides the default database location. Empty means the
	// XDG data dir.
	Path string `toml:"path"`
}

// ReminderConfig tunes the reminder daemon.
type ReminderConfig struct {
	// Schedule is the cron expression for scan ticks.
	Schedule string `toml:"schedule"`
	// LeadHours is how far ahead of its deadline a task counts as due soon.
	LeadHours int `toml:"lead_hours"`
}

// Paths returns standard XDG-compliant paths.
type Paths struct {
	ConfigDir  string
	DataDir    string
	CacheDir   string
	StateDir   string
	ConfigFile string
	DBFile     string
	// SessionFile holds the current login session token, mode 0600.
	SessionFile string
}

// GetPaths returns the resolved paths, respecting XDG env vars.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	dataDir := envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	cacheDir := envOr("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	stateDir := envOr("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))

	triageConfig := filepath.Join(configDir, "triage")
	triageData := filepath.Join(dataDir, "triage")
	triageState := filepath.Join(stateDir, "triage")

	return Paths{
		ConfigDir:   triageConfig,
		DataDir:     triageData,
		CacheDir:    filepath.Join(cacheDir, "triage"),
		StateDir:    triageState,
		ConfigFile:  filepath.Join(triageConfig, "config.toml"),
		DBFile:      filepath.Join(triageData, "triage.db"),
		SessionFile: filepath.Join(triageState, "session"),
	}
}

// EnsureDirs creates all required directories.
func (p Paths) EnsureDirs() error {
	dirs := []string{p.ConfigDir, p.DataDir, p.CacheDir, p.StateDir}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// DBPath resolves the task database location, honoring the config override.
func (c *Config) DBPath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return GetPaths().DBFile
}

// Load reads config from disk, returning defaults if not found.
func Load() (*Config, error) {
	paths := GetPaths()
	cfg := &Config{}

	data, err := os.ReadFile(paths.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes config to disk.
func Save(cfg *Config) error {
	paths := GetPaths()
	if err := paths.EnsureDirs(); err != nil {
		return err
	}

	f, err := os.Create(paths.ConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Initialized returns true if triage has been set up.
func Initialized() bool {
	paths := GetPaths()
	_, err := os.Stat(paths.ConfigFile)
	return err == nil
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(v bool) *bool {
	return &v
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills any field the config file left empty.
func (c *Config) applyDefaults() {
	if c.View.DefaultFilter == "" {
		c.View.DefaultFilter = "all"
	}
	if c.Reminder.Schedule == "" {
		c.Reminder.Schedule = "*/30 * * * *"
	}
	if c.Reminder.LeadHours <= 0 {
		c.Reminder.LeadHours = 24
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
