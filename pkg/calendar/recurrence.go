package calendar

import (
	"log"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/borgmon/nudge/pkg/models"
)

// expandRecurringEvent expands a recurring event into the instances that
// overlap [from, until). EXDATEs are honoured.
func expandRecurringEvent(base models.Event, comp *ical.Component, from, until time.Time) []models.Event {
	if base.StartTime.IsZero() {
		return nil
	}
	rruleProp := comp.Props.Get(ical.PropRecurrenceRule)
	if rruleProp == nil {
		return []models.Event{base}
	}

	rule, err := rrule.StrToRRule(rruleProp.Value)
	if err != nil {
		log.Printf("[RECURRING] Unsupported RRULE %q for \"%s\": %v", rruleProp.Value, base.Title, err)
		return nil
	}

	loc := getTimezoneFromComponent(comp)
	rule.DTStart(base.StartTime.In(loc))

	set := &rrule.Set{}
	set.RRule(rule)
	for _, ex := range exceptionDates(comp, loc) {
		set.ExDate(ex)
	}

	duration := base.EndTime.Sub(base.StartTime)
	events := []models.Event{}
	for _, start := range set.Between(from.Add(-duration), until, true) {
		instance := base
		instance.StartTime = start.In(time.Local)
		instance.EndTime = instance.StartTime.Add(duration)
		events = append(events, instance)
	}

	log.Printf("[RECURRING] \"%s\" expanded to %d instances", base.Title, len(events))
	return events
}

// exceptionDates reads every EXDATE value, including comma-separated lists.
func exceptionDates(comp *ical.Component, loc *time.Location) []time.Time {
	var dates []time.Time
	for _, prop := range comp.Props.Values(ical.PropExceptionDates) {
		propLoc := loc
		if tzid := prop.Params.Get(ical.ParamTimezoneID); tzid != "" {
			if l, err := time.LoadLocation(tzid); err == nil {
				propLoc = l
			}
		}
		for _, v := range strings.Split(prop.Value, ",") {
			if t, err := parseDateTimeValue(strings.TrimSpace(v), propLoc); err == nil {
				dates = append(dates, t)
			}
		}
	}
	return dates
}
