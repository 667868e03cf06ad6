// Package todo turns free-form text into to-do items with an optional due
// date and a priority.
package todo

import (
	"regexp"
	"strings"
	"time"

	"github.com/borgmon/nudge/pkg/models"
	"github.com/borgmon/nudge/pkg/parser"
)

var (
	separators = regexp.MustCompile(`(?i)\r?\n|;|,\s+|\s+and then\s+`)

	highMarker       = regexp.MustCompile(`(?i)!{2,}|\b(?:urgent|asap)\b`)
	mediumHighMarker = regexp.MustCompile(`(?i)!|\bimportant\b`)
	lowMarker        = regexp.MustCompile(`(?i)\b(?:whenever|someday)\b`)

	leadIn    = regexp.MustCompile(`(?i)^(?:todo:|todo\s+|add\s+|remind me to\s+|i need to\s+|need to\s+)`)
	connector = regexp.MustCompile(`(?i)^(?:by|on|at|due)\s+|\s+(?:by|on|at|due)$`)
	spaces    = regexp.MustCompile(`\s+`)
)

// Parser extracts to-dos, using the phrase parser for due dates.
type Parser struct {
	times *parser.Parser
}

// New creates a todo Parser.
func New(times *parser.Parser) *Parser {
	return &Parser{times: times}
}

// Parse splits input into segments and returns one todo per segment that
// still has a title after cleanup. Due dates in the past are kept.
func (p *Parser) Parse(input string, now time.Time) []models.Todo {
	var todos []models.Todo
	for _, segment := range separators.Split(input, -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		if t, ok := p.parseSegment(segment, now); ok {
			todos = append(todos, t)
		}
	}
	return todos
}

func (p *Parser) parseSegment(segment string, now time.Time) (models.Todo, bool) {
	text, priority := extractPriority(segment)

	var due *time.Time
	if m := p.times.Extract(text, now); m != nil {
		t := m.Time
		due = &t
		text = text[:m.Start] + " " + text[m.End:]
	}

	title := cleanTitle(text)
	if title == "" {
		return models.Todo{}, false
	}

	return models.Todo{
		Title:        title,
		OriginalText: segment,
		Status:       models.TodoStatusOpen,
		Priority:     priority,
		DueDate:      due,
	}, true
}

// extractPriority finds the strongest marker and strips every marker from the text.
func extractPriority(s string) (string, int) {
	priority := models.PriorityMedium
	switch {
	case highMarker.MatchString(s):
		priority = models.PriorityHigh
	case mediumHighMarker.MatchString(s):
		priority = models.PriorityMediumHigh
	case lowMarker.MatchString(s):
		priority = models.PriorityLow
	}

	for _, re := range []*regexp.Regexp{highMarker, mediumHighMarker, lowMarker} {
		s = re.ReplaceAllString(s, " ")
	}
	return s, priority
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))
	s = strings.TrimSpace(leadIn.ReplaceAllString(s, ""))
	s = strings.TrimSpace(connector.ReplaceAllString(s, ""))
	return strings.Trim(s, " ,.;:-")
}
