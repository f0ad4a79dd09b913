package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// KeyType represents the data type of a config key.
type KeyType string

const (
	KeyTypeString KeyType = "string"
	KeyTypeInt    KeyType = "int"
	KeyTypeBool   KeyType = "bool"
)

// KeyEntry describes a known, settable config key.
type KeyEntry struct {
	// Type is the value's data type (string, int).
	Type KeyType
	// Desc is a human-readable description shown in `triage config list`.
	Desc string
	// DefaultStr is the string representation of the default/zero value.
	DefaultStr string

	// get returns the current value as a string.
	get func(*Config) string
	// set validates and applies the value to cfg, returning an error on type mismatch.
	set func(cfg *Config, value string) error
	// unset resets the key to its schema default.
	unset func(cfg *Config)
}

// Get returns the current value of the key as a string.
func (e *KeyEntry) Get(cfg *Config) string { return e.get(cfg) }

// Set validates and sets the value, returning a descriptive error on type mismatch.
func (e *KeyEntry) Set(cfg *Config, value string) error { return e.set(cfg, value) }

// Unset resets the key to its schema default.
func (e *KeyEntry) Unset(cfg *Config) { e.unset(cfg) }

// SchemaKeys is the authoritative registry of all settable config keys.
// Keys use dot-notation matching the TOML section structure.
var SchemaKeys = map[string]*KeyEntry{
	"user.name": {
		Type:       KeyTypeString,
		Desc:       "Display name",
		DefaultStr: "",
		get:        func(cfg *Config) string { return cfg.User.Name },
		set:        func(cfg *Config, v string) error { cfg.User.Name = v; return nil },
		unset:      func(cfg *Config) { cfg.User.Name = "" },
	},
	"view.default_filter": {
		Type:       KeyTypeString,
		Desc:       "Filter applied when none is given (all, active, completed)",
		DefaultStr: "all",
		get:        func(cfg *Config) string { return cfg.View.DefaultFilter },
		set: func(cfg *Config, v string) error {
			f := strings.ToLower(strings.TrimSpace(v))
			switch f {
			case "all", "active", "completed":
				cfg.View.DefaultFilter = f
				return nil
			default:
				return fmt.Errorf("invalid filter %q: valid values are all, active, completed", v)
			}
		},
		unset: func(cfg *Config) { cfg.View.DefaultFilter = "all" },
	},
	"store.path": {
		Type:       KeyTypeString,
		Desc:       "Task database path (empty = XDG data dir)",
		DefaultStr: "",
		get:        func(cfg *Config) string { return cfg.Store.Path },
		set:        func(cfg *Config, v string) error { cfg.Store.Path = v; return nil },
		unset:      func(cfg *Config) { cfg.Store.Path = "" },
	},
	"reminder.schedule": {
		Type:       KeyTypeString,
		Desc:       "Cron schedule for reminder scans",
		DefaultStr: "*/30 * * * *",
		get:        func(cfg *Config) string { return cfg.Reminder.Schedule },
		set: func(cfg *Config, v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("reminder.schedule cannot be empty")
			}
			cfg.Reminder.Schedule = strings.TrimSpace(v)
			return nil
		},
		unset: func(cfg *Config) { cfg.Reminder.Schedule = "*/30 * * * *" },
	},
	"reminder.lead_hours": {
		Type:       KeyTypeInt,
		Desc:       "Hours ahead of a deadline that count as due soon",
		DefaultStr: "24",
		get:        func(cfg *Config) string { return strconv.Itoa(cfg.Reminder.LeadHours) },
		set: func(cfg *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid value %q for reminder.lead_hours: want a positive integer", v)
			}
			cfg.Reminder.LeadHours = n
			return nil
		},
		unset: func(cfg *Config) { cfg.Reminder.LeadHours = 24 },
	},
	"analytics": {
		Type:       KeyTypeBool,
		Desc:       "Enable anonymous usage analytics",
		DefaultStr: "true",
		get:        func(cfg *Config) string { return fmt.Sprintf("%t", cfg.Analytics.IsEnabled()) },
		set: func(cfg *Config, v string) error {
			b, err := ParseBoolValue(v)
			if err != nil {
				return fmt.Errorf("invalid value %q for analytics: %w", v, err)
			}
			cfg.Analytics.Enabled = BoolPtr(b)
			return nil
		},
		unset: func(cfg *Config) { cfg.Analytics.Enabled = BoolPtr(true) },
	},
}

// ValidKeyNames returns the sorted list of all known config key names.
func ValidKeyNames() []string {
	names := make([]string, 0, len(SchemaKeys))
	for k := range SchemaKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LookupKey returns the KeyEntry for a known config key.
func LookupKey(key string) (*KeyEntry, bool) {
	entry, ok := SchemaKeys[key]
	return entry, ok
}

// ParseBoolValue accepts common boolean string representations.
// Valid truthy values: true, 1, yes, on.
// Valid falsy values: false, 0, no, off.
func ParseBoolValue(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q (use one of: true/false, 1/0, yes/no, on/off)", s)
	}
}
