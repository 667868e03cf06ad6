// Package parser turns free text such as "remind me in 2 minutes" or
// "wake me up at 7am" into a concrete future time plus a cleaned label.
package parser

import (
	"log"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/borgmon/nudge/pkg/models"
)

// TimeFormat is the display format of ParsedAlarm.TimeString.
const TimeFormat = "3:04 PM"

// triggerPhrases are stripped (once) from the start of the description.
// Longer phrases come first so "set alarm" wins over "set".
var triggerPhrases = []string{
	"set a reminder",
	"set an alarm",
	"set a timer",
	"wake me up",
	"remind me",
	"set alarm",
	"set timer",
	"reminder",
	"alarm",
	"timer",
}

// prepositions are stripped (once) after the trigger phrase.
var prepositions = []string{"in", "at", "for", "to", "on"}

// connectors directly before a matched clock time belong to the time expression.
var connectors = []string{"at", "from"}

// clockTime recognises an explicit time of day in matched text.
var clockTime = regexp.MustCompile(`(?i)\d{1,2}[:：]\d{2}|\d{1,2}\s*(?:a\.?m\.?|p\.?m\.?)(?:\W|$)|\bnoon\b|\bmidnight\b|o'clock`)

var spaces = regexp.MustCompile(`\s+`)

var dateRule = isoDate()

// dateJoiners may sit between an ISO date and its clock time.
var dateJoiners = map[string]bool{"": true, "on": true, "at": true}

// Match is a single time expression found in the input.
type Match struct {
	Start, End int       // byte span of the expression in the input
	Text       string    // input[Start:End]
	Time       time.Time // resolved instant
}

// Parser extracts alarm times from natural-language phrases.
type Parser struct {
	w *when.Parser
}

// New creates a Parser with the English and common rule sets plus timer
// durations. ISO dates are handled separately in Extract.
func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	w.Add(timerDuration())
	return &Parser{w: w}
}

// Parse interprets input relative to the current time.
func (p *Parser) Parse(input string) *models.ParsedAlarm {
	return p.ParseAt(input, time.Now())
}

// ParseAt interprets input relative to now. It returns nil when no time
// expression is found or when the expression resolves to now or earlier.
func (p *Parser) ParseAt(input string, now time.Time) *models.ParsedAlarm {
	m := p.Extract(input, now)
	if m == nil {
		return nil
	}

	if !m.Time.After(now) {
		log.Printf("[PARSE] Rejected %q: resolves to the past (%s)", input, m.Time.Format(time.RFC3339))
		return nil
	}

	return &models.ParsedAlarm{
		TargetTime:   m.Time,
		OriginalText: input,
		Description:  Describe(input, m),
		IsRelative:   !clockTime.MatchString(m.Text),
		TimeString:   m.Time.Format(TimeFormat),
	}
}

// Extract finds the first time expression in input without rejecting past
// times. It returns nil if there is none. A YYYY-MM-DD date takes the clock
// time written next to it, or keeps the clock time of now.
func (p *Parser) Extract(input string, now time.Time) *Match {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	text := input
	date := dateRule.Find(input)
	if date != nil {
		text = input[:date.Left] + strings.Repeat(" ", date.Right-date.Left) + input[date.Right:]
	}

	m := p.extract(input, text, now)
	if date == nil {
		return m
	}
	return withDate(input, date, m, now)
}

// extract runs the when rules over text, which is input with any ISO date
// blanked out, so spans index into both.
func (p *Parser) extract(input, text string, now time.Time) *Match {
	r, err := p.w.Parse(text, now)
	if err != nil {
		log.Printf("[PARSE] Failed to parse %q: %v", input, err)
		return nil
	}
	if r == nil {
		return nil
	}

	start, end := r.Index, r.Index+len(r.Text)
	if start < 0 || end > len(input) || start >= end {
		return nil
	}
	start, end = trimSpan(input, start, end)
	if start >= end {
		return nil
	}
	start = absorbConnector(input, start)

	return &Match{
		Start: start,
		End:   end,
		Text:  input[start:end],
		Time:  r.Time,
	}
}

// withDate resolves an ISO date. A clock time from m is used when it sits
// right before or after the date; otherwise m is dropped.
func withDate(input string, date *rules.Match, m *Match, now time.Time) *Match {
	c := &rules.Context{}
	if ok, _ := date.Apply(c, nil, now); !ok {
		return m
	}

	start, end := date.Left, date.Right
	hour, minute, sec := now.Clock()
	nsec := now.Nanosecond()
	if m != nil && clockTime.MatchString(m.Text) && adjacent(input, m, start, end) {
		hour, minute, sec = m.Time.Clock()
		nsec = 0
		start, end = min(start, m.Start), max(end, m.End)
	}
	start = absorbConnector(input, start)

	return &Match{
		Start: start,
		End:   end,
		Text:  input[start:end],
		Time:  time.Date(*c.Year, time.Month(*c.Month), *c.Day, hour, minute, sec, nsec, now.Location()),
	}
}

func adjacent(input string, m *Match, start, end int) bool {
	var gap string
	switch {
	case m.End <= start:
		gap = input[m.End:start]
	case end <= m.Start:
		gap = input[end:m.Start]
	default:
		return false
	}
	return dateJoiners[strings.Trim(strings.ToLower(gap), " ,")]
}

// Describe builds the alarm label: the matched time expression is removed,
// then one leading trigger phrase, then one leading preposition.
func Describe(input string, m *Match) string {
	rest := input
	if m != nil {
		rest = input[:m.Start] + " " + input[m.End:]
	}
	rest = collapse(rest)
	rest = stripLeading(rest, triggerPhrases)
	rest = stripLeading(rest, prepositions)

	if rest == "" {
		return models.DefaultDescription
	}
	return rest
}

// trimSpan narrows [start,end) so it begins and ends on a word character.
// Rules match with a leading and trailing \W which is not part of the expression.
func trimSpan(s string, start, end int) (int, int) {
	for start < end && isSeparator(rune(s[start])) {
		start++
	}
	for end > start && isSeparator(rune(s[end-1])) {
		end--
	}
	return start, end
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';' || r == '!' || r == '?'
}

// absorbConnector extends start backwards over a preceding "at"/"from".
func absorbConnector(s string, start int) int {
	before := strings.TrimRightFunc(s[:start], unicode.IsSpace)
	lower := strings.ToLower(before)
	for _, c := range connectors {
		if !strings.HasSuffix(lower, c) {
			continue
		}
		at := len(before) - len(c)
		if at == 0 || !isWordRune(rune(before[at-1])) {
			return at
		}
	}
	return start
}

// stripLeading removes the first phrase that starts s as a whole word.
func stripLeading(s string, phrases []string) string {
	lower := strings.ToLower(s)
	for _, p := range phrases {
		if !strings.HasPrefix(lower, p) {
			continue
		}
		if len(s) > len(p) && isWordRune(rune(s[len(p)])) {
			continue
		}
		return collapse(s[len(p):])
	}
	return s
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

func collapse(s string) string {
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
