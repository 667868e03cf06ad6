package models

import "time"

// DefaultDescription is used when nothing is left of the input after the
// time expression and trigger words are removed.
const DefaultDescription = "Reminder"

// Alarm is the persisted form of a scheduled alarm. It never carries a timer
// handle; the manager keeps those separately.
type Alarm struct {
	ID           string    `json:"id"`           // alarm-<counter>-<uuid8>
	TargetTime   time.Time `json:"targetTime"`   // When the alarm fires
	OriginalText string    `json:"originalText"` // Raw input the alarm came from
	Description  string    `json:"description"`  // Cleaned label shown on fire
	IsActive     bool      `json:"isActive"`     // true until fired or cancelled
}

// ParsedAlarm is the parser's output and the manager's input.
type ParsedAlarm struct {
	TargetTime   time.Time `json:"targetTime"`
	OriginalText string    `json:"originalText"`
	Description  string    `json:"description"`
	IsRelative   bool      `json:"isRelative"` // "in 5 minutes" vs "at 7am"
	TimeString   string    `json:"timeString"` // e.g. "7:00 AM"
}

// IsDue reports whether the alarm's time is at or before now.
func (a Alarm) IsDue(now time.Time) bool {
	return !a.TargetTime.After(now)
}
