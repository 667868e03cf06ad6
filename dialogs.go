package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/nudge/pkg/alarm"
	"github.com/borgmon/nudge/pkg/models"
)

func (n *Nudge) showAddReminderWindow() {
	if n.addWindow != nil {
		n.addWindow.Show()
		n.addWindow.RequestFocus()
		return
	}

	w := n.app.NewWindow("Add Reminder")
	w.Resize(fyne.NewSize(460, 160))
	n.addWindow = w
	w.SetOnClosed(func() {
		n.addWindow = nil
	})

	preview := widget.NewLabel("")
	preview.Wrapping = fyne.TextWrapWord

	entry := widget.NewEntry()
	entry.SetPlaceHolder(`e.g. "remind me to call mom at 7pm"`)
	entry.OnChanged = func(text string) {
		preview.SetText(previewText(n.phrases.ParseAt(text, time.Now())))
	}

	submit := func() {
		if n.addReminder(entry.Text, w) {
			w.Close()
		}
	}
	entry.OnSubmitted = func(string) { submit() }

	addButton := widget.NewButton("Add", submit)
	addButton.Importance = widget.HighImportance

	w.SetContent(container.NewPadded(container.NewVBox(
		entry,
		preview,
		container.NewHBox(addButton, widget.NewButton("Cancel", w.Close)),
	)))
	w.Canvas().Focus(entry)
	w.Show()
}

func previewText(p *models.ParsedAlarm) string {
	if p == nil {
		return ""
	}
	when := p.TargetTime.Format("Mon 3:04 PM")
	if p.IsRelative {
		when = fmt.Sprintf("%s (%s)", when, formatCountdown(time.Until(p.TargetTime)))
	}
	return fmt.Sprintf("%s: %s", when, p.Description)
}

// addReminder parses text and schedules it, reporting problems on parent.
func (n *Nudge) addReminder(text string, parent fyne.Window) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	p := n.phrases.ParseAt(text, time.Now())
	if p == nil {
		if n.phrases.Extract(text, time.Now()) != nil {
			dialog.ShowError(alarm.ErrAlarmInPast, parent)
		} else {
			dialog.ShowInformation("No alarm time detected", `Try something like "in 10 minutes" or "at 7am".`, parent)
		}
		return false
	}

	id, err := n.manager.AddAlarm(*p)
	if errors.Is(err, alarm.ErrAlarmInPast) {
		dialog.ShowError(err, parent)
		return false
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("could not add alarm: %w", err), parent)
		return false
	}

	log.Printf("[ALARM] Added %s from %q", id, text)
	n.refreshViews()
	return true
}

// askNotificationPermission shows a yes/no prompt and waits for the answer.
// It must not be called on the UI thread.
func (n *Nudge) askNotificationPermission() bool {
	answer := make(chan bool, 1)
	reply := func(ok bool) {
		select {
		case answer <- ok:
		default:
		}
	}

	fyne.Do(func() {
		w := n.app.NewWindow("Notifications")
		w.Resize(fyne.NewSize(380, 180))
		w.SetOnClosed(func() { reply(false) })
		dialog.ShowConfirm("Notifications", "Show a notification when a reminder rings?", func(ok bool) {
			reply(ok)
			w.Close()
		}, w)
		w.Show()
	})

	return <-answer
}
