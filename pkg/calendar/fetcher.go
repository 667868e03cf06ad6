package calendar

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/borgmon/nudge/pkg/models"
)

// DefaultWindow is how far ahead events are turned into alarms.
const DefaultWindow = 24 * time.Hour

// Fetcher downloads iCal feeds.
type Fetcher struct {
	client *http.Client
	window time.Duration
	now    func() time.Time
}

// NewFetcher creates a Fetcher. A nil client uses one with a 30s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, window: DefaultWindow, now: time.Now}
}

// FetchEvents fetches and parses events from an iCal source
func (f *Fetcher) FetchEvents(ctx context.Context, source models.ICalSource) ([]models.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", source.Name, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", source.Name, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	now := f.now()
	events, err := ParseEvents(string(body), now, now.Add(f.window))
	if err != nil {
		return nil, err
	}

	// Set the source ID for all events
	eventsWithoutUID := 0
	for i := range events {
		events[i].SourceID = source.ID
		// Fallback: if no iCal UID, use deterministic ID based on start time and title
		if events[i].ID == "" {
			events[i].ID = source.ID + "-" + events[i].StartTime.Format(time.RFC3339) + "-" + events[i].Title
			eventsWithoutUID++
		}
	}

	if eventsWithoutUID > 0 {
		log.Printf("[CALENDAR] Generated fallback IDs for %d events without UID", eventsWithoutUID)
	}

	return events, nil
}

// ParseEvents decodes an iCal document and returns the timed events that
// overlap [now, until), with recurring events expanded.
func ParseEvents(bodyStr string, now, until time.Time) ([]models.Event, error) {
	if err := validateICalFormat(bodyStr); err != nil {
		return nil, err
	}

	decoder := ical.NewDecoder(strings.NewReader(bodyStr))
	events := []models.Event{}
	seenEventIDs := make(map[string]bool)
	seenEventKeys := make(map[string]bool) // key: title + start time

	stats := &filterStats{}

	for {
		cal, err := decoder.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			stats.totalComponents++
			if comp.Name != ical.CompEvent {
				continue
			}
			stats.totalEvents++

			normalizeComponentTimezones(comp)
			event := parseEvent(comp)

			candidates := []models.Event{event}
			if rruleProp := comp.Props.Get(ical.PropRecurrenceRule); rruleProp != nil {
				candidates = expandRecurringEvent(event, comp, now, until)
			}

			for _, e := range candidates {
				if shouldIncludeEvent(e, now, until, stats) && !isDuplicate(e, seenEventIDs, seenEventKeys, stats) {
					events = append(events, e)
				}
			}
		}
	}

	stats.logSummary(len(events))

	return events, nil
}

func validateICalFormat(bodyStr string) error {
	// Check if response is HTML instead of iCalendar
	upperBody := strings.ToUpper(strings.TrimSpace(bodyStr))
	if strings.HasPrefix(upperBody, "<!DOCTYPE") || strings.HasPrefix(upperBody, "<HTML") {
		return fmt.Errorf("received HTML instead of iCalendar data - check if URL requires authentication")
	}

	if !strings.HasPrefix(strings.TrimSpace(bodyStr), "BEGIN:VCALENDAR") {
		preview := strings.TrimSpace(bodyStr)
		if len(preview) > 100 {
			preview = preview[:100]
		}
		return fmt.Errorf("invalid iCalendar format - expected BEGIN:VCALENDAR, got: %s", preview)
	}

	return nil
}

func isDuplicate(event models.Event, seenEventIDs, seenEventKeys map[string]bool, stats *filterStats) bool {
	idKey := event.ID + "|" + event.StartTime.Format(time.RFC3339)
	if event.ID != "" && seenEventIDs[idKey] {
		stats.filteredDuplicates++
		log.Printf("[FILTERED] Duplicate (ID) - Event: \"%s\" (ID: %s)", event.Title, event.ID)
		return true
	}

	eventKey := event.Title + "|" + event.StartTime.Format(time.RFC3339)
	if seenEventKeys[eventKey] {
		stats.filteredDuplicates++
		log.Printf("[FILTERED] Duplicate (Title+Time) - Event: \"%s\" (Start: %s)",
			event.Title, event.StartTime.Format("2006-01-02 15:04"))
		return true
	}

	if event.ID != "" {
		seenEventIDs[idKey] = true
	}
	seenEventKeys[eventKey] = true
	return false
}

type filterStats struct {
	totalComponents       int
	totalEvents           int
	filteredMissingTime   int
	filteredCancelled     int
	filteredAllDay        int
	filteredOutsideWindow int
	filteredDuplicates    int
}

func (s *filterStats) logSummary(includedCount int) {
	totalFiltered := s.filteredMissingTime + s.filteredCancelled + s.filteredAllDay + s.filteredOutsideWindow + s.filteredDuplicates
	log.Printf("[CALENDAR] Components: %d, Events: %d, Included: %d, Filtered: %d",
		s.totalComponents, s.totalEvents, includedCount, totalFiltered)
	if totalFiltered > 0 {
		log.Printf("[CALENDAR] Filtered breakdown: %d cancelled, %d all-day, %d outside window, %d missing time, %d duplicates",
			s.filteredCancelled, s.filteredAllDay, s.filteredOutsideWindow, s.filteredMissingTime, s.filteredDuplicates)
	}
}
