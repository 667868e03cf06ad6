package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers understood by the store package.
const (
	StorageDriverPrefs    = "prefs"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// DefaultStorageKey is the well-known key the alarm collection is stored under.
const DefaultStorageKey = "nudge.alarms"

// StorageConfig selects where alarms (and todos) are persisted.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
	Key    string `mapstructure:"key" yaml:"key"`
}

// SoundConfig controls the audio cue played when an alarm fires.
type SoundConfig struct {
	Enabled         bool        `mapstructure:"enabled" yaml:"enabled"`
	Repeat          int         `mapstructure:"repeat" yaml:"repeat"`
	QuietTimeRanges []TimeRange `mapstructure:"quiet_time_ranges" yaml:"quiet_time_ranges"`
}

// NotificationConfig controls system notifications.
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Title   string `mapstructure:"title" yaml:"title"`
}

// ServerConfig controls the local HTTP API.
type ServerConfig struct {
	Enabled        bool     `mapstructure:"enabled" yaml:"enabled"`
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	// Auth enables bearer-token checks on /api routes.
	Auth bool `mapstructure:"auth" yaml:"auth"`
}

// CalendarConfig lists iCal feeds whose events become alarms.
type CalendarConfig struct {
	Sources         []ICalSource `mapstructure:"sources" yaml:"sources"`
	LeadMinutes     string       `mapstructure:"lead_minutes" yaml:"lead_minutes"`           // comma-separated minutes
	SyncIntervalMin int          `mapstructure:"sync_interval_min" yaml:"sync_interval_min"` // minutes
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AutoStart    bool               `mapstructure:"auto_start" yaml:"auto_start"`
	Storage      StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Sound        SoundConfig        `mapstructure:"sound" yaml:"sound"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Calendar     CalendarConfig     `mapstructure:"calendar" yaml:"calendar"`
}

// ICalSource represents a named iCal calendar source
type ICalSource struct {
	ID   string `mapstructure:"id" yaml:"id" json:"id"`       // Unique identifier
	Name string `mapstructure:"name" yaml:"name" json:"name"` // Display name
	URL  string `mapstructure:"url" yaml:"url" json:"url"`    // iCal URL
}

// TimeRange represents a time range within a day
type TimeRange struct {
	StartHour   int `mapstructure:"start_hour" yaml:"start_hour"`     // 0-23
	StartMinute int `mapstructure:"start_minute" yaml:"start_minute"` // 0-59
	EndHour     int `mapstructure:"end_hour" yaml:"end_hour"`         // 0-23
	EndMinute   int `mapstructure:"end_minute" yaml:"end_minute"`     // 0-59
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/nudge/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "nudge", "config.yaml")
}

// DefaultDataPath returns the default sqlite database location.
func DefaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "nudge.db")
	}
	return filepath.Join(home, ".local", "share", "nudge", "nudge.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Storage: StorageConfig{
			Driver: StorageDriverPrefs,
			Key:    DefaultStorageKey,
		},
		Sound: SoundConfig{
			Enabled:         true,
			Repeat:          3,
			QuietTimeRanges: []TimeRange{},
		},
		Notification: NotificationConfig{
			Enabled: true,
			Title:   "Reminder",
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Calendar: CalendarConfig{
			Sources:         []ICalSource{},
			LeadMinutes:     "5",
			SyncIntervalMin: 30,
		},
	}
}

// SetDefaults registers the default values on v so that missing keys and
// unset flags resolve to sensible values.
func SetDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("auto_start", d.AutoStart)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.key", d.Storage.Key)
	v.SetDefault("sound.enabled", d.Sound.Enabled)
	v.SetDefault("sound.repeat", d.Sound.Repeat)
	v.SetDefault("notification.enabled", d.Notification.Enabled)
	v.SetDefault("notification.title", d.Notification.Title)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("calendar.lead_minutes", d.Calendar.LeadMinutes)
	v.SetDefault("calendar.sync_interval_min", d.Calendar.SyncIntervalMin)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	return LoadConfigWith(v, path)
}

// LoadConfigWith is LoadConfig on a caller-supplied viper instance, so flags
// bound to v take precedence over the file.
func LoadConfigWith(v *viper.Viper, path string) (*AppConfig, error) {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return unmarshalConfig(v, path)
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return unmarshalConfig(v, path)
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	return unmarshalConfig(v, path)
}

func unmarshalConfig(v *viper.Viper, path string) (*AppConfig, error) {
	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Storage.Key == "" {
		cfg.Storage.Key = DefaultStorageKey
	}
	if cfg.Storage.Driver == StorageDriverSQLite && cfg.Storage.DSN == "" {
		cfg.Storage.DSN = DefaultDataPath()
	}
	if cfg.Calendar.SyncIntervalMin <= 0 {
		cfg.Calendar.SyncIntervalMin = 30
	}
	if cfg.Sound.Repeat <= 0 {
		cfg.Sound.Repeat = 1
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("auto_start", cfg.AutoStart)
	v.Set("storage", cfg.Storage)
	v.Set("sound", cfg.Sound)
	v.Set("notification", cfg.Notification)
	v.Set("server", cfg.Server)
	v.Set("calendar", cfg.Calendar)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// GetLeadMinutes returns the configured minutes-before-start for calendar
// alarms, always including 0 (event start).
func (c *CalendarConfig) GetLeadMinutes() []int {
	minutes := []int{0}

	if c.LeadMinutes == "" {
		return minutes
	}

	parts := strings.Split(c.LeadMinutes, ",")
	seen := make(map[int]bool)
	seen[0] = true

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if min, err := strconv.Atoi(part); err == nil {
			// Skip 0 since we always add it, and skip duplicates
			if min > 0 && !seen[min] {
				minutes = append(minutes, min)
				seen[min] = true
			}
		}
	}

	return minutes
}

// IsTimeInQuietTime returns true if the given time is in a quiet time range
func (c *SoundConfig) IsTimeInQuietTime(t time.Time) bool {
	if len(c.QuietTimeRanges) == 0 {
		return false
	}

	currentMinutes := t.Hour()*60 + t.Minute()

	for _, tr := range c.QuietTimeRanges {
		startMinutes := tr.StartHour*60 + tr.StartMinute
		endMinutes := tr.EndHour*60 + tr.EndMinute

		// Handle overnight ranges (e.g., 22:00 to 08:00)
		if endMinutes < startMinutes {
			if currentMinutes >= startMinutes || currentMinutes < endMinutes {
				return true
			}
		} else {
			if currentMinutes >= startMinutes && currentMinutes < endMinutes {
				return true
			}
		}
	}

	return false
}

// Validate checks if the iCal source has required fields
func (s *ICalSource) Validate() bool {
	return s.Name != "" && s.URL != ""
}
