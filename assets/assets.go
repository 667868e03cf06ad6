// Package assets bundles the binary resources shipped with nudge.
package assets

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed alarm.wav
var AlarmWAV []byte

//go:embed icon.png
var iconPNG []byte

// Icon is the application and tray icon.
var Icon fyne.Resource = fyne.NewStaticResource("icon.png", iconPNG)
