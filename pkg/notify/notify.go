// Package notify delivers alarm notifications to the desktop or the log.
package notify

import (
	"errors"
	"log"
	"sync"

	"fyne.io/fyne/v2"
)

// ErrPermissionDenied is returned when the user declined notifications.
var ErrPermissionDenied = errors.New("notification permission denied")

const (
	keyAsked   = "nudge.notifications.asked"
	keyGranted = "nudge.notifications.granted"
)

// Sender is the part of fyne.App that shows notifications.
type Sender interface {
	SendNotification(*fyne.Notification)
}

// Permissions persists the user's answer to the permission prompt.
type Permissions interface {
	GetBool(key string, fallback bool) bool
	SetBool(key string, value bool)
}

// Prompt asks the user whether notifications may be shown.
type Prompt func() bool

// FyneNotifier sends desktop notifications through fyne once the user has
// allowed them.
type FyneNotifier struct {
	sender Sender
	perms  Permissions
	prompt Prompt

	mu sync.Mutex
}

// NewFyneNotifier creates a notifier. A nil prompt grants permission without asking.
func NewFyneNotifier(sender Sender, perms Permissions, prompt Prompt) *FyneNotifier {
	return &FyneNotifier{sender: sender, perms: perms, prompt: prompt}
}

// RequestPermission asks once and remembers the answer.
func (n *FyneNotifier) RequestPermission() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.perms.GetBool(keyAsked, false) {
		return n.perms.GetBool(keyGranted, false)
	}

	granted := true
	if n.prompt != nil {
		granted = n.prompt()
	}
	n.perms.SetBool(keyAsked, true)
	n.perms.SetBool(keyGranted, granted)

	log.Printf("[NOTIFY] Permission granted: %v", granted)
	return granted
}

// Notify shows a notification, asking for permission first if needed.
func (n *FyneNotifier) Notify(title, body string) error {
	if !n.RequestPermission() {
		return ErrPermissionDenied
	}
	n.sender.SendNotification(fyne.NewNotification(title, body))
	return nil
}

// LogNotifier writes notifications to the log. Used when running headless.
type LogNotifier struct{}

func (LogNotifier) Notify(title, body string) error {
	log.Printf("[NOTIFY] %s: %s", title, body)
	return nil
}
