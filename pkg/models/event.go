package models

import "time"

// Event represents a calendar event
type Event struct {
	ID          string    // iCal event UID
	Title       string    // Event title/summary
	Description string    // Event description
	StartTime   time.Time // Event start time
	EndTime     time.Time // Event end time
	Status      string    // Event status (CONFIRMED, CANCELLED, NEEDS-ACTION)
	SourceID    string    // ID of the iCal source this event came from
}

// AlarmKey returns the originalText used for alarms created from this event,
// so repeated syncs can recognise alarms they already scheduled.
func (e Event) AlarmKey() string {
	return "calendar:" + e.ID + "@" + e.StartTime.UTC().Format(time.RFC3339)
}
