package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/charmbracelet/lipgloss"

	"github.com/borgmon/nudge/pkg/alarm"
	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/server"
	"github.com/borgmon/nudge/pkg/store"
)

var (
	colorGreen = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorGray  = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorBlue  = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	timeStyle = lipgloss.NewStyle().
			Width(22)

	activeStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	inactiveStyle = lipgloss.NewStyle().
			Foreground(colorGray).
			Faint(true)
)

// listAlarms prints the stored alarms for cfg. Past active alarms are marked
// as missed on the way, the same as at startup.
func listAlarms(cfg *models.AppConfig) error {
	var prefs *store.PrefsStore
	if cfg.Storage.Driver == models.StorageDriverPrefs {
		prefs = store.NewPrefsStore(app.NewWithID(appID))
	}

	storage, sqlStore, err := openStorage(cfg.Storage, prefs)
	if err != nil {
		return err
	}
	if sqlStore != nil {
		defer sqlStore.Close()
	}

	m := alarm.NewManager(storage, alarm.Options{Key: cfg.Storage.Key})
	defer m.Shutdown()
	if err := m.LoadFromStorage(); err != nil {
		return fmt.Errorf("loading alarms: %w", err)
	}

	printAlarms(os.Stdout, m.GetAllAlarms(), time.Now())
	return nil
}

func printAlarms(w io.Writer, alarms []models.Alarm, now time.Time) {
	if len(alarms) == 0 {
		fmt.Fprintln(w, inactiveStyle.Render("No alarms."))
		return
	}

	active := 0
	for _, a := range alarms {
		if a.IsActive {
			active++
		}
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Alarms (%d active, %d total)", active, len(alarms))))

	for _, a := range alarms {
		when := timeStyle.Render(a.TargetTime.Format("Mon Jan 2 3:04 PM"))
		line := fmt.Sprintf("%s %s", when, a.Description)
		if a.IsActive {
			line += "  " + formatCountdown(a.TargetTime.Sub(now))
			fmt.Fprintln(w, activeStyle.Render(line))
		} else {
			fmt.Fprintln(w, inactiveStyle.Render(line))
		}
	}
}

func formatCountdown(d time.Duration) string {
	d = d.Round(time.Minute)
	if d < time.Minute {
		return "(now)"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h >= 24:
		return fmt.Sprintf("(in %dd %dh)", h/24, h%24)
	case h > 0:
		return fmt.Sprintf("(in %dh %dm)", h, m)
	default:
		return fmt.Sprintf("(in %dm)", m)
	}
}

// printToken issues a bearer token for the HTTP API.
func printToken(w io.Writer) error {
	secret, err := apiSecret()
	if err != nil {
		return err
	}
	token, err := server.GenerateToken(secret, "cli", tokenTTL)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}
	fmt.Fprintln(w, token)
	return nil
}
