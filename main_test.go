package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/nudge/pkg/alarm"
	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/parser"
	"github.com/borgmon/nudge/pkg/store"
)

func TestFlagsOverrideConfig(t *testing.T) {
	flags := pflag.NewFlagSet("nudge", pflag.ContinueOnError)
	flags.String("storage", "", "")
	flags.String("dsn", "", "")
	flags.String("addr", "", "")
	require.NoError(t, flags.Parse([]string{"--storage", "memory", "--addr", "127.0.0.1:9999"}))

	v := viper.New()
	require.NoError(t, bindFlags(v, flags))

	cfg, err := models.LoadConfigWith(v, filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, models.StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, models.DefaultStorageKey, cfg.Storage.Key)
}

func TestOpenStorage(t *testing.T) {
	s, sqlStore, err := openStorage(models.StorageConfig{Driver: models.StorageDriverMemory}, nil)
	require.NoError(t, err)
	assert.Nil(t, sqlStore)
	assert.IsType(t, &store.MemoryStore{}, s)

	_, _, err = openStorage(models.StorageConfig{Driver: models.StorageDriverPrefs}, nil)
	assert.Error(t, err)

	prefs := store.NewPrefsStore(test.NewApp())
	s, _, err = openStorage(models.StorageConfig{Driver: models.StorageDriverPrefs}, prefs)
	require.NoError(t, err)
	assert.Same(t, prefs, s)

	dsn := filepath.Join(t.TempDir(), "data", "nudge.db")
	s, sqlStore, err = openStorage(models.StorageConfig{Driver: models.StorageDriverSQLite, DSN: dsn}, nil)
	require.NoError(t, err)
	require.NotNil(t, sqlStore)
	t.Cleanup(func() { sqlStore.Close() })
	require.NoError(t, s.Set("k", "v"))
	got, found, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", got)

	_, _, err = openStorage(models.StorageConfig{Driver: models.StorageDriverPostgres}, nil)
	assert.Error(t, err)

	_, _, err = openStorage(models.StorageConfig{Driver: "redis"}, nil)
	assert.Error(t, err)
}

func TestPrintAlarms(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)
	alarms := []models.Alarm{
		{ID: "alarm-1-aaaaaaaa", TargetTime: now.Add(90 * time.Minute), Description: "stretch", IsActive: true},
		{ID: "alarm-2-bbbbbbbb", TargetTime: now.Add(-time.Hour), Description: "standup"},
	}

	var buf bytes.Buffer
	printAlarms(&buf, alarms, now)
	out := buf.String()
	assert.Contains(t, out, "Alarms (1 active, 2 total)")
	assert.Contains(t, out, "stretch")
	assert.Contains(t, out, "(in 1h 30m)")
	assert.Contains(t, out, "standup")

	buf.Reset()
	printAlarms(&buf, nil, now)
	assert.Contains(t, buf.String(), "No alarms.")
}

func TestFormatCountdown(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{10 * time.Second, "(now)"},
		{25 * time.Minute, "(in 25m)"},
		{2*time.Hour + 5*time.Minute, "(in 2h 5m)"},
		{50 * time.Hour, "(in 2d 2h)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCountdown(tt.in), tt.in.String())
	}
}

func TestUpcomingAlarms(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)
	var active []models.Alarm
	for i := 6; i >= 0; i-- {
		active = append(active, models.Alarm{
			ID:         string(rune('a' + i)),
			TargetTime: now.Add(time.Duration(i-1) * time.Hour),
			IsActive:   true,
		})
	}

	got := upcomingAlarms(active, now, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
	assert.Equal(t, "e", got[2].ID)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "häää...", truncateString("hääääääääää", 7))
}

func TestAddReminder(t *testing.T) {
	a := test.NewApp()
	t.Cleanup(a.Quit)

	m := alarm.NewManager(store.NewMemoryStore(), alarm.Options{})
	t.Cleanup(m.Shutdown)

	n := &Nudge{
		app:     a,
		config:  &models.AppConfig{},
		manager: m,
		phrases: parser.New(),
	}
	w := a.NewWindow("test")

	assert.True(t, n.addReminder("remind me to stretch in 10 minutes", w))
	active := m.GetActiveAlarms()
	require.Len(t, active, 1)
	assert.Equal(t, "stretch", active[0].Description)

	assert.False(t, n.addReminder("buy milk", w))
	assert.False(t, n.addReminder("   ", w))
	assert.Len(t, m.GetAllAlarms(), 1)
}

func TestPreviewText(t *testing.T) {
	assert.Empty(t, previewText(nil))

	target := time.Date(2026, 10, 16, 7, 0, 0, 0, time.Local)
	got := previewText(&models.ParsedAlarm{TargetTime: target, Description: "wake up"})
	assert.Equal(t, "Fri 7:00 AM: wake up", got)
}
