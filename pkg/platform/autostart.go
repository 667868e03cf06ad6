package platform

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/emersion/go-autostart"
)

// Launcher is a login item that can be switched on and off.
type Launcher interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// LoginItem returns the login item for the running executable.
func LoginItem(args ...string) (*autostart.App, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating executable: %w", err)
	}

	// Resolve symlinks if any
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, fmt.Errorf("resolving executable: %w", err)
	}

	return &autostart.App{
		Name:        "nudge",
		DisplayName: "Nudge",
		Exec:        append([]string{execPath}, args...),
	}, nil
}

// SyncAutostart makes the login item match enable.
func SyncAutostart(item Launcher, enable bool) error {
	switch {
	case enable && !item.IsEnabled():
		if err := item.Enable(); err != nil {
			return fmt.Errorf("enabling autostart: %w", err)
		}
		log.Println("[AUTOSTART] Enabled")
	case !enable && item.IsEnabled():
		if err := item.Disable(); err != nil {
			return fmt.Errorf("disabling autostart: %w", err)
		}
		log.Println("[AUTOSTART] Disabled")
	}
	return nil
}
