package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/borgmon/nudge/pkg/models"
)

// AlarmSink is the part of the alarm manager calendar sync writes to.
type AlarmSink interface {
	AddAlarm(models.ParsedAlarm) (string, error)
	GetAllAlarms() []models.Alarm
}

// SyncResult summarises one sync pass.
type SyncResult struct {
	Events  int
	Added   int
	Skipped int
}

// Sync fetches every valid source and schedules one alarm per event and
// lead time. Alarms a previous sync created are recognised by their
// originalText and skipped. Sources that fail do not stop the others.
func (f *Fetcher) Sync(ctx context.Context, sources []models.ICalSource, sink AlarmSink, leadMinutes []int) (SyncResult, error) {
	var result SyncResult
	var errs []error

	existing := make(map[string]bool)
	for _, a := range sink.GetAllAlarms() {
		existing[a.OriginalText] = true
	}

	now := f.now()
	for _, source := range sources {
		if !source.Validate() {
			continue
		}

		events, err := f.FetchEvents(ctx, source)
		if err != nil {
			log.Printf("[CALENDAR] Failed to sync %s: %v", source.Name, err)
			errs = append(errs, fmt.Errorf("source %s: %w", source.Name, err))
			continue
		}
		result.Events += len(events)

		for _, event := range events {
			for _, lead := range leadMinutes {
				p := alarmForEvent(event, lead)
				if existing[p.OriginalText] || !p.TargetTime.After(now) {
					result.Skipped++
					continue
				}
				if _, err := sink.AddAlarm(p); err != nil {
					result.Skipped++
					continue
				}
				existing[p.OriginalText] = true
				result.Added++
			}
		}
	}

	log.Printf("[CALENDAR] Sync done: %d events, %d alarms added, %d skipped", result.Events, result.Added, result.Skipped)
	return result, errors.Join(errs...)
}

func alarmForEvent(event models.Event, lead int) models.ParsedAlarm {
	key := event.AlarmKey()
	description := event.Title
	if description == "" {
		description = models.DefaultDescription
	}
	if lead > 0 {
		key = fmt.Sprintf("%s-%dm", key, lead)
		description = fmt.Sprintf("%s in %d min", description, lead)
	}

	return models.ParsedAlarm{
		TargetTime:   event.StartTime.Add(-time.Duration(lead) * time.Minute),
		OriginalText: key,
		Description:  description,
		TimeString:   event.StartTime.Format("3:04 PM"),
	}
}
