package store

import (
	"fmt"

	"fyne.io/fyne/v2"
)

// PrefsStore keeps values in the Fyne application preferences, the desktop
// equivalent of a browser's local storage.
type PrefsStore struct {
	app fyne.App
}

// NewPrefsStore creates a new PrefsStore instance
func NewPrefsStore(app fyne.App) *PrefsStore {
	return &PrefsStore{app: app}
}

// Get loads a value from preferences. An empty string counts as not found.
func (ps *PrefsStore) Get(key string) (string, bool, error) {
	if ps.app == nil {
		return "", false, fmt.Errorf("reading %q: no application", key)
	}
	value := ps.app.Preferences().String(key)
	return value, value != "", nil
}

// Set saves a value to preferences
func (ps *PrefsStore) Set(key, value string) error {
	if ps.app == nil {
		return fmt.Errorf("writing %q: no application", key)
	}
	ps.app.Preferences().SetString(key, value)
	return nil
}

// GetBool loads a flag with a fallback, used for one-off answers such as the
// notification permission prompt.
func (ps *PrefsStore) GetBool(key string, fallback bool) bool {
	return ps.app.Preferences().BoolWithFallback(key, fallback)
}

// SetBool saves a flag to preferences
func (ps *PrefsStore) SetBool(key string, value bool) {
	ps.app.Preferences().SetBool(key, value)
}
