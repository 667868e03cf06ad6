package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/borgmon/nudge/pkg/models"
)

var morning = time.Date(2026, 10, 15, 6, 0, 0, 0, time.Local)

func TestParseRejectsPastTimes(t *testing.T) {
	p := New()

	assert.Nil(t, p.ParseAt("remind me at 00:00 on 2000-01-01", morning))
	assert.Nil(t, p.Parse("remind me at 00:00 on 2000-01-01"))
}

func TestParseWithoutTimeExpression(t *testing.T) {
	p := New()

	assert.Nil(t, p.ParseAt("buy milk", morning))
	assert.Nil(t, p.ParseAt("", morning))
	assert.Nil(t, p.ParseAt("   ", morning))
}

func TestParseRelativePhrase(t *testing.T) {
	p := New()

	got := p.ParseAt("remind me in 2 minutes", morning)
	require.NotNil(t, got)

	assert.Equal(t, morning.Add(2*time.Minute), got.TargetTime)
	assert.True(t, got.IsRelative)
	assert.Equal(t, "remind me in 2 minutes", got.OriginalText)
	assert.Equal(t, models.DefaultDescription, got.Description)
	assert.Equal(t, "6:02 AM", got.TimeString)
}

func TestParseRelativePhraseAgainstWallClock(t *testing.T) {
	p := New()

	before := time.Now()
	got := p.Parse("remind me in 2 minutes")
	require.NotNil(t, got)

	assert.False(t, got.TargetTime.Before(before.Add(119*time.Second)))
	assert.False(t, got.TargetTime.After(before.Add(121*time.Second)))
	assert.True(t, got.IsRelative)
}

func TestParseAbsolutePhraseStripsTriggerAndPreposition(t *testing.T) {
	p := New()

	got := p.ParseAt("wake me up at 7am to take out the trash", morning)
	require.NotNil(t, got)

	assert.Equal(t, "take out the trash", got.Description)
	assert.Equal(t, time.Date(2026, 10, 15, 7, 0, 0, 0, time.Local), got.TargetTime)
	assert.False(t, got.IsRelative)
	assert.Equal(t, "7:00 AM", got.TimeString)
}

func TestParseDescriptionAfterTrailingTime(t *testing.T) {
	p := New()

	got := p.ParseAt("remind me to call mom in 5 minutes", morning)
	require.NotNil(t, got)

	assert.Equal(t, "call mom", got.Description)
	assert.Equal(t, morning.Add(5*time.Minute), got.TargetTime)
}

func TestExtractKeepsPastTimes(t *testing.T) {
	p := New()

	m := p.Extract("renew passport 2000-01-01", morning)
	require.NotNil(t, m)
	assert.Equal(t, time.Date(2000, 1, 1, 6, 0, 0, 0, time.Local), m.Time)
	assert.Equal(t, "2000-01-01", m.Text)
	assert.Equal(t, "renew passport 2000-01-01"[m.Start:m.End], m.Text)
}

func TestExtractISODate(t *testing.T) {
	p := New()
	evening := time.Date(2026, 10, 15, 20, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		input string
		text  string
		want  time.Time
	}{
		{"date keeps clock of now", "renew passport 2027-03-01", "2027-03-01", time.Date(2027, 3, 1, 20, 0, 0, 0, time.Local)},
		{"month-day not read as time", "dentist 2027-12-25", "2027-12-25", time.Date(2027, 12, 25, 20, 0, 0, 0, time.Local)},
		{"clock before date", "remind me at 9am on 2027-03-01", "at 9am on 2027-03-01", time.Date(2027, 3, 1, 9, 0, 0, 0, time.Local)},
		{"clock after date", "standup 2027-03-01 at 09:30", "2027-03-01 at 09:30", time.Date(2027, 3, 1, 9, 30, 0, 0, time.Local)},
		{"end of february", "pay rent 2027-02-28", "2027-02-28", time.Date(2027, 2, 28, 20, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := p.Extract(tt.input, evening)
			require.NotNil(t, m)
			assert.Equal(t, tt.text, m.Text)
			assert.Equal(t, tt.input[m.Start:m.End], m.Text)
			assert.True(t, tt.want.Equal(m.Time), "got %s", m.Time)
		})
	}
}

func TestParseISODateWithClockTime(t *testing.T) {
	p := New()

	got := p.ParseAt("remind me at 9am on 2027-03-01", morning)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2027, 3, 1, 9, 0, 0, 0, time.Local), got.TargetTime)
	assert.Equal(t, models.DefaultDescription, got.Description)
	assert.False(t, got.IsRelative)

	got = p.ParseAt("renew passport 2027-03-01", morning)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2027, 3, 1, 6, 0, 0, 0, time.Local), got.TargetTime)
	assert.Equal(t, "renew passport", got.Description)
}

func TestExtractInvalidISODate(t *testing.T) {
	p := New()

	assert.Nil(t, p.Extract("renew passport 2027-02-30", morning))
	assert.Nil(t, p.Extract("renew passport 2027-13-01", morning))
}

func TestParseTimerDurations(t *testing.T) {
	p := New()

	tests := []struct {
		input string
		after time.Duration
		desc  string
	}{
		{"set timer for 10 minutes", 10 * time.Minute, models.DefaultDescription},
		{"timer 10 minutes", 10 * time.Minute, models.DefaultDescription},
		{"set a timer for an hour to check the oven", time.Hour, "check the oven"},
		{"timer for 30 seconds", 30 * time.Second, models.DefaultDescription},
		{"set a timer for five mins", 5 * time.Minute, models.DefaultDescription},
		{"timer in 10 minutes pasta", 10 * time.Minute, "pasta"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := p.ParseAt(tt.input, morning)
			require.NotNil(t, got)
			assert.Equal(t, morning.Add(tt.after), got.TargetTime)
			assert.Equal(t, tt.desc, got.Description)
			assert.True(t, got.IsRelative)
		})
	}
}

func TestParseClockTimeWinsOverDuration(t *testing.T) {
	p := New()

	got := p.ParseAt("alarm at 5pm for 2 hours", morning)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 10, 15, 17, 0, 0, 0, time.Local), got.TargetTime)
}

// Clock times are not rolled over to tomorrow. Once 7am has passed, "at 7am"
// is in the past and rejected.
func TestParseClockTimeAlreadyPassedToday(t *testing.T) {
	p := New()
	afterSeven := time.Date(2026, 10, 15, 8, 0, 0, 0, time.Local)

	assert.Nil(t, p.ParseAt("wake me up at 7am to take out the trash", afterSeven))

	m := p.Extract("wake me up at 7am to take out the trash", afterSeven)
	require.NotNil(t, m)
	assert.Equal(t, time.Date(2026, 10, 15, 7, 0, 0, 0, time.Local), m.Time)

	got := p.ParseAt("wake me up tomorrow at 7am", afterSeven)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 10, 16, 7, 0, 0, 0, time.Local), got.TargetTime)
}

func TestDescribe(t *testing.T) {
	span := func(input, expr string) *Match {
		i := strings.Index(input, expr)
		require.GreaterOrEqual(t, i, 0, "%q not in %q", expr, input)
		return &Match{Start: i, End: i + len(expr), Text: expr}
	}

	tests := []struct {
		name  string
		input string
		expr  string
		want  string
	}{
		{"trigger then preposition", "wake me up at 7am to take out the trash", "at 7am", "take out the trash"},
		{"only trigger left", "remind me in 2 minutes", "in 2 minutes", "Reminder"},
		{"set alarm", "Set alarm 6:30 am for the train", "6:30 am", "the train"},
		{"timer", "timer in 10 minutes pasta", "in 10 minutes", "pasta"},
		{"no trigger", "call the bank tomorrow", "tomorrow", "call the bank"},
		{"whole word only", "alarms are loud at noon", "at noon", "alarms are loud"},
		{"preposition needs word boundary", "remind me into the wild at 5pm", "at 5pm", "into the wild"},
		{"one preposition only", "alarm in 5 minutes to to do", "in 5 minutes", "to do"},
		{"whitespace collapsed", "  remind me   in 1 hour   stretch  ", "in 1 hour", "stretch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.input, span(tt.input, tt.expr)))
		})
	}
}

func TestDescribeWithoutMatch(t *testing.T) {
	assert.Equal(t, "stretch", Describe("remind me to stretch", nil))
	assert.Equal(t, models.DefaultDescription, Describe("alarm", nil))
}

func TestAbsorbConnector(t *testing.T) {
	s := "wake me up at 7am"
	assert.Equal(t, strings.Index(s, "at 7am"), absorbConnector(s, strings.Index(s, "7am")))

	s = "meet from 9:00"
	assert.Equal(t, strings.Index(s, "from"), absorbConnector(s, strings.Index(s, "9:00")))

	s = "look at that 7am"
	assert.Equal(t, strings.Index(s, "7am"), absorbConnector(s, strings.Index(s, "7am")))
}

func TestTrimSpan(t *testing.T) {
	s := "go at 7am, then"
	start, end := trimSpan(s, 5, 11)
	assert.Equal(t, "7am", s[start:end])
}
