package main

import (
	"fmt"
	"sort"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"

	"github.com/borgmon/nudge/assets"
	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/platform"
)

const trayUpcomingLimit = 5

func (n *Nudge) setupSystemTray() {
	n.updateSystemTrayMenu()
}

func (n *Nudge) updateSystemTrayMenu() {
	desk, ok := n.app.(desktop.App)
	if !ok {
		return
	}

	menuItems := []*fyne.MenuItem{}

	upcoming := upcomingAlarms(n.manager.GetActiveAlarms(), time.Now(), trayUpcomingLimit)
	if len(upcoming) > 0 {
		header := fyne.NewMenuItem("Upcoming:", nil)
		header.Disabled = true
		menuItems = append(menuItems, header)

		for _, a := range upcoming {
			item := fyne.NewMenuItem(fmt.Sprintf("  %s - %s", a.TargetTime.Format("3:04 PM"), truncateString(a.Description, 35)), nil)
			item.Disabled = true
			menuItems = append(menuItems, item)
		}
		menuItems = append(menuItems, fyne.NewMenuItemSeparator())
	}

	menuItems = append(menuItems,
		fyne.NewMenuItem("Add Reminder…  "+platform.ShortcutLabel, n.showAddReminderWindow),
		fyne.NewMenuItem("Alarms…", n.showAlarmsWindow),
	)
	if len(n.config.Calendar.Sources) > 0 {
		menuItems = append(menuItems, fyne.NewMenuItem("Sync Calendars", func() {
			go n.syncCalendars()
		}))
	}
	menuItems = append(menuItems,
		fyne.NewMenuItem("Clear All", n.confirmClearAll),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Edit Config…", n.openConfigFile),
		fyne.NewMenuItem("Quit", n.quit),
	)

	desk.SetSystemTrayMenu(fyne.NewMenu("Nudge", menuItems...))
	desk.SetSystemTrayIcon(assets.Icon)
}

func (n *Nudge) confirmClearAll() {
	if len(n.manager.GetAllAlarms()) == 0 {
		return
	}
	w := n.app.NewWindow("Clear All")
	w.Resize(fyne.NewSize(360, 160))
	dialog.ShowConfirm("Clear All", "Cancel every alarm and forget them?", func(ok bool) {
		if ok {
			n.manager.ClearAllAlarms()
			n.refreshViews()
		}
		w.Close()
	}, w)
	w.Show()
}

// upcomingAlarms returns up to limit active alarms after now, soonest first.
func upcomingAlarms(active []models.Alarm, now time.Time, limit int) []models.Alarm {
	upcoming := make([]models.Alarm, 0, len(active))
	for _, a := range active {
		if a.TargetTime.After(now) {
			upcoming = append(upcoming, a)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].TargetTime.Before(upcoming[j].TargetTime)
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// truncateString truncates s to maxLen runes, adding "..." if needed
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
