// Package bytesize parses and formats human-readable byte sizes, for
// configuration values like "64MB" or "1.5 GiB". Units are binary
// (1 KB = 1024 bytes); the explicit KiB/MiB forms are accepted too.
package bytesize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Size is a byte count.
type Size int64

const (
	B  Size = 1
	KB Size = 1 << 10
	MB Size = 1 << 20
	GB Size = 1 << 30
	TB Size = 1 << 40
)

var pattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([a-z]*)\s*$`)

// Parse parses a human-readable size string. A missing unit means bytes.
func Parse(s string) (Size, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("bytesize: empty string")
	}

	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("bytesize: invalid format %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: invalid number %q: %w", m[1], err)
	}

	var unit Size
	switch strings.ToLower(m[2]) {
	case "", "b", "byte", "bytes":
		unit = B
	case "k", "kb", "kib":
		unit = KB
	case "m", "mb", "mib":
		unit = MB
	case "g", "gb", "gib":
		unit = GB
	case "t", "tb", "tib":
		unit = TB
	default:
		return 0, fmt.Errorf("bytesize: unknown unit %q", m[2])
	}

	return Size(value * float64(unit)), nil
}

// MustParse is Parse that panics on error. Intended for package-level
// defaults only.
func MustParse(s string) Size {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Int64 returns the size as a plain byte count.
func (s Size) Int64() int64 { return int64(s) }

// String renders the size with the largest unit that divides it cleanly
// enough to read, e.g. "1.5MB", "512KB", "42B".
func (s Size) String() string {
	if s == 0 {
		return "0B"
	}

	neg := ""
	v := s
	if v < 0 {
		neg = "-"
		v = -v
	}

	units := []struct {
		value Size
		label string
	}{
		{TB, "TB"},
		{GB, "GB"},
		{MB, "MB"},
		{KB, "KB"},
	}
	for _, u := range units {
		if v < u.value {
			continue
		}
		f := float64(v) / float64(u.value)
		// Trim trailing zeros: 1.50 -> 1.5, 2.00 -> 2.
		out := strconv.FormatFloat(f, 'f', 2, 64)
		out = strings.TrimRight(out, "0")
		out = strings.TrimRight(out, ".")
		return neg + out + u.label
	}
	return fmt.Sprintf("%s%dB", neg, v)
}
