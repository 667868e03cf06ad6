// Package alarm owns scheduled alarms: it arms one timer per active alarm,
// runs the firing side effects, and keeps the persisted collection in step
// with memory after every change.
package alarm

import (
	"context"
	"errors"
	"time"
)

// ErrAlarmInPast is returned by AddAlarm when the target time is not in the future.
var ErrAlarmInPast = errors.New("alarm time is in the past")

// Storage is a key-value store the alarm collection is persisted to.
type Storage interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
}

// Sounder plays the audio cue. Play returns once playback has started or failed.
type Sounder interface {
	Play(ctx context.Context) error
}

// Notifier shows a system notification.
type Notifier interface {
	Notify(title, body string) error
}

// Timer is a cancellable delayed callback.
type Timer interface {
	Stop() bool
}

// Scheduler arms delayed callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Delivery reports how each side effect went when an alarm fired.
type Delivery struct {
	AlarmID      string
	Sound        error
	Notification error
}

// OK reports whether every channel delivered.
func (d Delivery) OK() bool {
	return d.Sound == nil && d.Notification == nil
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// liveAlarm is the in-process half of an alarm. It is never persisted.
type liveAlarm struct {
	id     string
	timer  Timer
	firing bool // claimed by its timer callback; cancel is a no-op from here on
}
