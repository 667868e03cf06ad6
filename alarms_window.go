package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/nudge/pkg/ui/components"
)

// AlarmsWindow lists every alarm, newest last, with a cancel action.
type AlarmsWindow struct {
	window fyne.Window
	list   *components.AlarmList
	n      *Nudge
}

func (n *Nudge) showAlarmsWindow() {
	if n.alarmsWindow != nil {
		n.alarmsWindow.Refresh()
		n.alarmsWindow.window.Show()
		n.alarmsWindow.window.RequestFocus()
		return
	}

	aw := &AlarmsWindow{n: n}
	aw.window = n.app.NewWindow("Alarms")
	aw.window.Resize(fyne.NewSize(520, 360))

	var content *fyne.Container
	aw.list, content = components.NewAlarmList(func(id string) bool {
		ok := n.manager.CancelAlarm(id)
		if ok {
			n.updateSystemTrayMenu()
		}
		return ok
	})

	toolbar := container.NewHBox(
		widget.NewButtonWithIcon("Add Reminder…", theme.ContentAddIcon(), n.showAddReminderWindow),
		widget.NewButtonWithIcon("Clear All", theme.DeleteIcon(), n.confirmClearAll),
	)

	aw.window.SetContent(container.NewPadded(container.NewBorder(toolbar, nil, nil, nil, content)))
	aw.window.SetOnClosed(func() {
		n.alarmsWindow = nil
	})

	n.alarmsWindow = aw
	aw.Refresh()
	aw.window.Show()
}

// Refresh reloads the list from the manager. Must run on the UI thread.
func (aw *AlarmsWindow) Refresh() {
	aw.list.SetAlarms(aw.n.manager.GetAllAlarms())
}
