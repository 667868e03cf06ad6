package calendar

import (
	"log"
	"time"

	"github.com/borgmon/nudge/pkg/models"
)

// shouldIncludeEvent drops events that cannot become alarms: untimed,
// cancelled, all-day, or outside [now, until).
func shouldIncludeEvent(event models.Event, now, until time.Time, stats *filterStats) bool {
	if event.StartTime.IsZero() || event.EndTime.IsZero() {
		stats.filteredMissingTime++
		log.Printf("[FILTERED] Missing time - Event: \"%s\"", event.Title)
		return false
	}

	if event.Status == "CANCELLED" {
		stats.filteredCancelled++
		log.Printf("[FILTERED] Cancelled - Event: \"%s\" (Start: %s)",
			event.Title, event.StartTime.Format("2006-01-02 15:04"))
		return false
	}

	if isAllDayEvent(event) {
		stats.filteredAllDay++
		log.Printf("[FILTERED] All-day - Event: \"%s\" (Duration: %v)",
			event.Title, event.EndTime.Sub(event.StartTime))
		return false
	}

	if event.StartTime.Before(until) && event.EndTime.After(now) {
		return true
	}

	stats.filteredOutsideWindow++
	return false
}

func isAllDayEvent(event models.Event) bool {
	startDate := event.StartTime.Format("2006-01-02")
	endDate := event.EndTime.Format("2006-01-02")
	duration := event.EndTime.Sub(event.StartTime)

	// An event is considered all-day if it spans multiple days and is >= 24 hours
	return startDate != endDate && duration >= 24*time.Hour
}
