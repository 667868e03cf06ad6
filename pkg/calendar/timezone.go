package calendar

import (
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// Map of common Windows timezone names to IANA timezone names
var windowsToIANA = map[string]string{
	"Pacific Standard Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"Atlantic Standard Time":       "America/Halifax",
	"Alaskan Standard Time":        "America/Anchorage",
	"Hawaiian Standard Time":       "Pacific/Honolulu",
	"GMT Standard Time":            "Europe/London",
	"W. Europe Standard Time":      "Europe/Berlin",
	"Central Europe Standard Time": "Europe/Budapest",
	"Romance Standard Time":        "Europe/Paris",
	"China Standard Time":          "Asia/Shanghai",
	"Tokyo Standard Time":          "Asia/Tokyo",
	"India Standard Time":          "Asia/Kolkata",
	"AUS Eastern Standard Time":    "Australia/Sydney",
}

// normalizeComponentTimezones rewrites Windows TZIDs on the date properties
// of comp to their IANA names so go-ical can resolve them.
func normalizeComponentTimezones(comp *ical.Component) {
	for _, name := range []string{
		ical.PropDateTimeStart,
		ical.PropDateTimeEnd,
		ical.PropExceptionDates,
		ical.PropRecurrenceDates,
	} {
		for i := range comp.Props[name] {
			prop := &comp.Props[name][i]
			if ianaName, ok := windowsToIANA[prop.Params.Get(ical.ParamTimezoneID)]; ok {
				prop.Params.Set(ical.ParamTimezoneID, ianaName)
			}
		}
	}
}

// getTimezoneFromComponent tries to determine the timezone for a component
func getTimezoneFromComponent(comp *ical.Component) *time.Location {
	if dtstart := comp.Props.Get(ical.PropDateTimeStart); dtstart != nil {
		if tzid := dtstart.Params.Get(ical.ParamTimezoneID); tzid != "" {
			if ianaName, ok := windowsToIANA[tzid]; ok {
				tzid = ianaName
			}
			if loc, err := time.LoadLocation(tzid); err == nil {
				return loc
			}
		}

		if strings.HasSuffix(dtstart.Value, "Z") {
			return time.UTC
		}
	}

	return time.Local
}
