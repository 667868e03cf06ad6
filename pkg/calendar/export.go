package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/nudge/pkg/models"
)

const productID = "-//borgmon//nudge//EN"

// Export writes alarms as a VCALENDAR with one VEVENT and display VALARM each.
func Export(w io.Writer, alarms []models.Alarm, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, a := range alarms {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, a.ID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, a.TargetTime.UTC())
		event.Props.SetText(ical.PropSummary, a.Description)
		if a.OriginalText != "" {
			event.Props.SetText(ical.PropDescription, a.OriginalText)
		}
		if a.IsActive {
			event.Props.SetText(ical.PropStatus, "CONFIRMED")
		} else {
			event.Props.SetText(ical.PropStatus, "CANCELLED")
		}

		valarm := ical.NewComponent(ical.CompAlarm)
		valarm.Props.SetText(ical.PropAction, "DISPLAY")
		valarm.Props.SetText(ical.PropDescription, a.Description)
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = "PT0S"
		valarm.Props.Set(trigger)
		event.Children = append(event.Children, valarm)

		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encoding calendar: %w", err)
	}
	return nil
}
