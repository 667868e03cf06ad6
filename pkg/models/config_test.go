package models

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, StorageDriverPrefs, cfg.Storage.Driver)
	assert.Equal(t, DefaultStorageKey, cfg.Storage.Key)
	assert.True(t, cfg.Sound.Enabled)
	assert.Equal(t, 3, cfg.Sound.Repeat)
	assert.Equal(t, "Reminder", cfg.Notification.Title)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Calendar.SyncIntervalMin)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
storage:
  driver: sqlite
notification:
  title: Heads up
server:
  enabled: true
  addr: ":9000"
calendar:
  lead_minutes: "10,5"
  sources:
    - id: work
      name: Work
      url: https://example.com/work.ics
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, StorageDriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, DefaultDataPath(), cfg.Storage.DSN, "sqlite without dsn falls back to the data path")
	assert.Equal(t, DefaultStorageKey, cfg.Storage.Key)
	assert.Equal(t, "Heads up", cfg.Notification.Title)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	require.Len(t, cfg.Calendar.Sources, 1)
	assert.Equal(t, "Work", cfg.Calendar.Sources[0].Name)
	assert.Equal(t, []int{0, 10, 5}, cfg.Calendar.GetLeadMinutes())
}

func TestLoadConfigRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Notification.Title = "Wake up"
	cfg.Server.Enabled = true

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Wake up", loaded.Notification.Title)
	assert.True(t, loaded.Server.Enabled)
}

func TestGetLeadMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", []int{0}},
		{"5,15", []int{0, 5, 15}},
		{" 10 , 10, 0, x, -3", []int{0, 10}},
	}

	for _, tt := range tests {
		c := CalendarConfig{LeadMinutes: tt.in}
		assert.Equal(t, tt.want, c.GetLeadMinutes(), "input %q", tt.in)
	}
}

func TestIsTimeInQuietTime(t *testing.T) {
	c := SoundConfig{QuietTimeRanges: []TimeRange{
		{StartHour: 22, EndHour: 7},                                  // overnight
		{StartHour: 12, StartMinute: 30, EndHour: 13, EndMinute: 15}, // lunch
	}}
	at := func(h, m int) time.Time { return time.Date(2026, 10, 15, h, m, 0, 0, time.Local) }

	assert.True(t, c.IsTimeInQuietTime(at(23, 0)))
	assert.True(t, c.IsTimeInQuietTime(at(6, 59)))
	assert.False(t, c.IsTimeInQuietTime(at(7, 0)))
	assert.True(t, c.IsTimeInQuietTime(at(12, 45)))
	assert.False(t, c.IsTimeInQuietTime(at(13, 15)))

	empty := SoundConfig{}
	assert.False(t, empty.IsTimeInQuietTime(at(23, 0)))
}
