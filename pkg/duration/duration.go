// Package duration parses and formats human-readable durations.
// It accepts everything time.ParseDuration accepts, plus day and week
// units and spelled-out unit names, so configuration values like
// "90 seconds", "2 days" or "1w" all work.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// Day is 24 hours.
	Day = 24 * time.Hour
	// Week is 7 days.
	Week = 7 * Day
)

// token matches one number-unit pair, with optional whitespace in between.
var token = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*([a-zµ]+)`)

var unitValues = map[string]time.Duration{
	"ns": time.Nanosecond, "nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
	"us": time.Microsecond, "µs": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ms": time.Millisecond, "millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": Day, "day": Day, "days": Day,
	"w": Week, "wk": Week, "week": Week, "weeks": Week,
}

// Parse parses a human-readable duration string.
//
// Number-unit pairs are summed: "1w2d" is nine days, "1h 30m" is ninety
// minutes. A leading minus sign negates the whole value. A bare number is
// rejected; durations always carry a unit.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("duration: empty string")
	}

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	matches := token.FindAllStringSubmatch(s, -1)
	if matches == nil {
		return 0, fmt.Errorf("duration: invalid format %q", s)
	}

	// Reject strings with garbage between tokens, e.g. "1h boop 2m".
	if stripped := token.ReplaceAllString(s, ""); strings.TrimSpace(stripped) != "" {
		return 0, fmt.Errorf("duration: invalid format %q", s)
	}

	var total time.Duration
	for _, m := range matches {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("duration: invalid number %q: %w", m[1], err)
		}
		unit, ok := unitValues[strings.ToLower(m[2])]
		if !ok {
			return 0, fmt.Errorf("duration: unknown unit %q", m[2])
		}
		total += time.Duration(value * float64(unit))
	}

	if negative {
		total = -total
	}
	return total, nil
}

// MustParse is Parse that panics on error. Intended for package-level
// defaults only.
func MustParse(s string) time.Duration {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders a duration with the largest fitting units, omitting zero
// components: 26 hours becomes "1d2h", 90 seconds "1m30s".
func Format(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}

	units := []struct {
		value time.Duration
		label string
	}{
		{Week, "w"},
		{Day, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
		{time.Microsecond, "µs"},
		{time.Nanosecond, "ns"},
	}
	for _, u := range units {
		if d < u.value {
			continue
		}
		n := d / u.value
		d -= n * u.value
		fmt.Fprintf(&b, "%d%s", n, u.label)
	}
	return b.String()
}
