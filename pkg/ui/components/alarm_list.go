package components

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/nudge/pkg/models"
)

// AlarmList shows alarms with a cancel control for the selected one.
type AlarmList struct {
	list        *widget.List
	data        []models.Alarm
	selectedIdx int
	onCancel    func(id string) bool
	now         func() time.Time
}

// NewAlarmList creates the list and its container. onCancel receives the
// selected alarm's ID and reports whether it was cancelled.
func NewAlarmList(onCancel func(id string) bool) (*AlarmList, *fyne.Container) {
	al := &AlarmList{
		selectedIdx: -1,
		onCancel:    onCancel,
		now:         time.Now,
	}

	al.list = widget.NewList(
		func() int {
			return len(al.data)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("template")
		},
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i < len(al.data) {
				o.(*widget.Label).SetText(FormatAlarm(al.data[i], al.now()))
			}
		})

	al.list.OnSelected = func(id widget.ListItemID) {
		al.selectedIdx = id
	}

	cancelButton := widget.NewButtonWithIcon("Cancel alarm", theme.CancelIcon(), al.CancelSelected)

	listScroll := container.NewScroll(al.list)
	listScroll.SetMinSize(fyne.NewSize(420, 240))

	listWithBorder := container.NewBorder(
		widget.NewSeparator(),
		widget.NewSeparator(),
		widget.NewSeparator(),
		widget.NewSeparator(),
		listScroll,
	)

	return al, container.NewBorder(nil, container.NewHBox(cancelButton), nil, nil, listWithBorder)
}

// SetAlarms replaces the displayed alarms.
func (al *AlarmList) SetAlarms(alarms []models.Alarm) {
	al.data = alarms
	al.selectedIdx = -1
	al.list.UnselectAll()
	al.list.Refresh()
}

// Select marks the row at index as selected.
func (al *AlarmList) Select(index int) {
	al.list.Select(index)
}

// CancelSelected cancels the selected alarm and marks the row inactive.
func (al *AlarmList) CancelSelected() {
	if al.selectedIdx < 0 || al.selectedIdx >= len(al.data) {
		return
	}
	a := &al.data[al.selectedIdx]
	if al.onCancel != nil && al.onCancel(a.ID) {
		a.IsActive = false
	}
	al.list.UnselectAll()
	al.selectedIdx = -1
	al.list.Refresh()
}

// FormatAlarm renders one list row.
func FormatAlarm(a models.Alarm, now time.Time) string {
	when := a.TargetTime.Format("3:04 PM")
	if !sameDay(a.TargetTime, now) {
		when = a.TargetTime.Format("Mon Jan 2, 3:04 PM")
	}

	status := "scheduled"
	switch {
	case !a.IsActive && a.IsDue(now):
		status = "done"
	case !a.IsActive:
		status = "cancelled"
	}

	return fmt.Sprintf("%s  %s  (%s)", when, a.Description, status)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
