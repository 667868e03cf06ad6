package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"
)

// isoDate matches calendar dates written as YYYY-MM-DD. It runs before the
// when rules, which would otherwise read the MM-DD tail as a clock time.
func isoDate() *rules.F {
	return &rules.F{
		RegExp: regexp.MustCompile(`(?i)(?:\W|^)(\d{4})-(\d{1,2})-(\d{1,2})(?:\W|$)`),
		Applier: func(m *rules.Match, c *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
			year, err := strconv.Atoi(m.Captures[0])
			if err != nil {
				return false, nil
			}
			month, err := strconv.Atoi(m.Captures[1])
			if err != nil || month < 1 || month > 12 {
				return false, nil
			}
			day, err := strconv.Atoi(m.Captures[2])
			if err != nil || day < 1 {
				return false, nil
			}
			// Feb 30 and friends
			if time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Day() != day {
				return false, nil
			}

			c.Year = &year
			c.Month = &month
			c.Day = &day
			return true, nil
		},
	}
}

// timerDuration matches timer-style durations: "for 10 minutes",
// "10 minutes", "an hour". It only applies when no other rule has set a
// clock time or a duration, so "in 5 minutes" and "at 5pm" win.
func timerDuration() rules.Rule {
	return &rules.F{
		RegExp: regexp.MustCompile("(?i)(?:\\W|^)(?:(for)\\s+)?" +
			"(" + en.INTEGER_WORDS_PATTERN + "|[0-9]+|an?)\\s*" +
			"(sec(?:ond)?s?|min(?:ute)?s?|hours?|hrs?)" +
			"(?:\\W|$)"),
		Applier: func(m *rules.Match, c *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
			if c.Duration != 0 || c.Hour != nil || c.Minute != nil {
				return false, nil
			}

			numStr := strings.ToLower(strings.TrimSpace(m.Captures[1]))
			num, ok := en.INTEGER_WORDS[numStr]
			switch {
			case ok:
			case numStr == "a" || numStr == "an":
				num = 1
			default:
				n, err := strconv.Atoi(numStr)
				if err != nil || n <= 0 {
					return false, nil
				}
				num = n
			}

			unit := strings.ToLower(m.Captures[2])
			switch {
			case strings.HasPrefix(unit, "sec"):
				c.Duration = time.Duration(num) * time.Second
			case strings.HasPrefix(unit, "min"):
				c.Duration = time.Duration(num) * time.Minute
			default:
				c.Duration = time.Duration(num) * time.Hour
			}
			return true, nil
		},
	}
}
