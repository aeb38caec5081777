package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParseDate implements the DATE coercion fallback chain: ISO-8601
// date-time, YYYY-MM-DD, YYYYMMDD, then a natural-language date phrase
// ("N days ago", "today", "yesterday", "tomorrow", "now") on top of
// stdlib time alone.
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)

	for _, layout := range []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"20060102",
	} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}

	if t, ok := parseNaturalLanguageDate(text); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("could not convert %s to a date", text)
}

var relativeDatePattern = regexp.MustCompile(`(?i)^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+(ago|from now)$`)

// parseNaturalLanguageDate handles relative phrases ("45 days ago", "3
// weeks from now") and a handful of fixed calendar words ("today",
// "yesterday", "tomorrow", "now"). Anything else reports ok=false, and
// ParseDate then fails with "could not convert <v> to a date".
func parseNaturalLanguageDate(text string) (time.Time, bool) {
	now := time.Now().UTC()

	switch strings.ToLower(text) {
	case "now":
		return now, true
	case "today":
		return truncateToDay(now), true
	case "yesterday":
		return truncateToDay(now.AddDate(0, 0, -1)), true
	case "tomorrow":
		return truncateToDay(now.AddDate(0, 0, 1)), true
	}

	m := relativeDatePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	if strings.EqualFold(m[3], "ago") {
		n = -n
	}

	switch strings.ToLower(m[2]) {
	case "second":
		return now.Add(time.Duration(n) * time.Second), true
	case "minute":
		return now.Add(time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, n), true
	case "week":
		return now.AddDate(0, 0, 7*n), true
	case "month":
		return now.AddDate(0, n, 0), true
	case "year":
		return now.AddDate(n, 0, 0), true
	default:
		return time.Time{}, false
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
