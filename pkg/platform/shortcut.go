package platform

import (
	"context"
	"fmt"
	"log"

	"golang.design/x/hotkey"
)

// ShortcutLabel describes the global add-reminder shortcut.
const ShortcutLabel = "Ctrl+Shift+R"

// ListenShortcut registers the global add-reminder shortcut and calls fn on
// every press until ctx is done.
func ListenShortcut(ctx context.Context, fn func()) error {
	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeyR)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("registering %s: %w", ShortcutLabel, err)
	}
	defer hk.Unregister()
	log.Printf("[PLATFORM] %s opens the add reminder window", ShortcutLabel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hk.Keydown():
			fn()
		}
	}
}
