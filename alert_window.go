package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/platform"
	"github.com/borgmon/nudge/pkg/ui/components"
)

const (
	holdToDismiss = 2 * time.Second
	snoozeFor     = 5 * time.Minute
)

// AlertWindow is the full-screen window shown when an alarm rings.
type AlertWindow struct {
	window    fyne.Window
	alarm     models.Alarm
	onDismiss func()
	onSnooze  func()

	stopMonitoring chan struct{}
	closeOnce      sync.Once
}

// NewAlertWindow builds the window on the UI thread. onDismiss runs however
// the window is closed; onSnooze only when the snooze button completes.
func NewAlertWindow(app fyne.App, a models.Alarm, onDismiss, onSnooze func()) *AlertWindow {
	aw := &AlertWindow{
		alarm:          a,
		onDismiss:      onDismiss,
		onSnooze:       onSnooze,
		stopMonitoring: make(chan struct{}),
	}

	fyne.Do(func() {
		aw.window = app.NewWindow("Reminder")
		aw.window.SetFullScreen(true)
		aw.buildUI()
		aw.window.SetOnClosed(aw.closed)
		aw.setupFocusMonitoring()
	})

	return aw
}

func (aw *AlertWindow) buildUI() {
	title := canvas.NewText(aw.alarm.Description, nil)
	title.TextSize = 32
	title.Alignment = fyne.TextAlignCenter

	timeLabel := widget.NewLabel(aw.alarm.TargetTime.Format("3:04 PM"))
	timeLabel.Alignment = fyne.TextAlignCenter

	original := widget.NewLabel(aw.alarm.OriginalText)
	original.Wrapping = fyne.TextWrapWord
	original.Alignment = fyne.TextAlignCenter

	secs := int(holdToDismiss / time.Second)
	dismiss := components.NewHoldButton(fmt.Sprintf("Dismiss (Hold %ds)", secs), holdToDismiss, func() {
		fyne.Do(aw.window.Close)
	})

	buttons := container.NewHBox()
	if aw.onSnooze != nil {
		snooze := components.NewHoldButton(fmt.Sprintf("Snooze %dm (Hold %ds)", int(snoozeFor/time.Minute), secs), holdToDismiss, func() {
			aw.onSnooze()
			fyne.Do(aw.window.Close)
		})
		buttons.Add(snooze)
	}
	buttons.Add(dismiss)

	content := container.NewVBox(
		container.NewPadded(title),
		timeLabel,
		widget.NewSeparator(),
		container.NewPadded(original),
		widget.NewSeparator(),
		buttons,
	)

	aw.window.SetContent(container.NewPadded(container.NewCenter(content)))
}

func (aw *AlertWindow) closed() {
	aw.closeOnce.Do(func() {
		close(aw.stopMonitoring)
		if aw.onDismiss != nil {
			aw.onDismiss()
		}
		log.Printf("[ALARM] Alert closed: %s", aw.alarm.ID)
	})
}

func (aw *AlertWindow) Show() {
	fyne.Do(func() {
		if aw.window != nil {
			aw.window.Show()
			aw.window.RequestFocus()
		}
	})
}

// setupFocusMonitoring keeps the alert in front until it is closed.
func (aw *AlertWindow) setupFocusMonitoring() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-aw.stopMonitoring:
				return
			case <-ticker.C:
			}

			if platform.IsAppActive() {
				continue
			}
			platform.ActivateApp()
			fyne.Do(func() {
				select {
				case <-aw.stopMonitoring:
				default:
					aw.window.Show()
				}
			})
		}
	}()
}

// showAlert is the manager's trigger callback. It runs off the UI thread.
func (n *Nudge) showAlert(a models.Alarm) {
	log.Printf("[ALARM] Showing alert for %s: %s", a.ID, a.Description)

	aw := NewAlertWindow(n.app, a, n.cue.Stop, func() {
		n.snooze(a)
	})
	aw.Show()
}

func (n *Nudge) snooze(a models.Alarm) {
	target := time.Now().Add(snoozeFor)
	id, err := n.manager.AddAlarm(models.ParsedAlarm{
		TargetTime:   target,
		OriginalText: a.OriginalText,
		Description:  a.Description,
		IsRelative:   true,
		TimeString:   target.Format("3:04 PM"),
	})
	if err != nil {
		log.Printf("[ALARM] Snooze failed for %s: %v", a.ID, err)
		return
	}
	log.Printf("[ALARM] Snoozed %s as %s until %s", a.ID, id, target.Format(time.Kitchen))
}
