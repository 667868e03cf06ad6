package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLauncher struct {
	enabled  bool
	calls    int
	failWith error
}

func (f *fakeLauncher) IsEnabled() bool { return f.enabled }

func (f *fakeLauncher) Enable() error {
	f.calls++
	if f.failWith != nil {
		return f.failWith
	}
	f.enabled = true
	return nil
}

func (f *fakeLauncher) Disable() error {
	f.calls++
	f.enabled = false
	return nil
}

func TestSyncAutostart(t *testing.T) {
	l := &fakeLauncher{}

	require.NoError(t, SyncAutostart(l, true))
	assert.True(t, l.enabled)
	require.NoError(t, SyncAutostart(l, true))
	assert.Equal(t, 1, l.calls, "already enabled")

	require.NoError(t, SyncAutostart(l, false))
	assert.False(t, l.enabled)
	assert.Equal(t, 2, l.calls)
}

func TestSyncAutostartError(t *testing.T) {
	boom := errors.New("read-only home")
	err := SyncAutostart(&fakeLauncher{failWith: boom}, true)
	assert.ErrorIs(t, err, boom)
}

func TestLoginItem(t *testing.T) {
	item, err := LoginItem("--headless")
	require.NoError(t, err)
	assert.Equal(t, "nudge", item.Name)
	require.Len(t, item.Exec, 2)
	assert.Equal(t, "--headless", item.Exec[1])
}
