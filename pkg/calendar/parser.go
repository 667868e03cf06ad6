package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/nudge/pkg/models"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func parseEvent(comp *ical.Component) models.Event {
	event := models.Event{}

	// Extract iCal UID for stable event identification
	if uidProp := comp.Props.Get(ical.PropUID); uidProp != nil {
		event.ID = uidProp.Value
	}

	if summaryProp := comp.Props.Get(ical.PropSummary); summaryProp != nil {
		if text, err := summaryProp.Text(); err == nil {
			event.Title = text
		} else {
			event.Title = summaryProp.Value
		}
	}

	if descProp := comp.Props.Get(ical.PropDescription); descProp != nil {
		if text, err := descProp.Text(); err == nil {
			event.Description = text
		}
	}

	if startProp := comp.Props.Get(ical.PropDateTimeStart); startProp != nil {
		if t, err := parseDateTimeProperty(startProp); err == nil {
			event.StartTime = t
		}
	}

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if t, err := parseDateTimeProperty(endProp); err == nil {
			event.EndTime = t
		}
	}

	if statusProp := comp.Props.Get(ical.PropStatus); statusProp != nil {
		event.Status = strings.ToUpper(statusProp.Value)
	}

	// Some providers only rename cancelled events
	if event.Status != "CANCELLED" && isCancelledTitle(event.Title) {
		event.Status = "CANCELLED"
	}

	return event
}

func parseDateTimeProperty(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.Local); err == nil {
		return t.In(time.Local), nil
	}
	return parseDateTimeValue(prop.Value, time.Local)
}

// parseDateTimeValue parses the raw forms feeds use when the typed accessor fails.
func parseDateTimeValue(value string, loc *time.Location) (time.Time, error) {
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"20060102",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", value)
}

func isCancelledTitle(title string) bool {
	clean := nonAlnum.ReplaceAllString(strings.ToLower(title), "")
	return strings.HasPrefix(clean, "canceled") || strings.HasPrefix(clean, "cancelled")
}
