package utils

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyDuration is returned when the duration input is blank.
	ErrEmptyDuration = errors.New("duration cannot be empty")
	// ErrInvalidDuration is returned when the input does not follow the unit grammar.
	ErrInvalidDuration = errors.New("invalid duration format")
	// ErrNonPositiveDuration is returned when all units sum to zero.
	ErrNonPositiveDuration = errors.New("duration must be positive")
)

// Day is the length of a calendar-free day.
const Day = 24 * time.Hour

// durationPattern accepts unit groups in descending order, e.g. "1y 2mo 3w 4d 5h 6m 7s".
// Unit words may be spelled out ("3 days, 2 hours"). A bare number counts as seconds.
var durationPattern = regexp.MustCompile(`(?i)^` +
	`(?:([0-9]+)\s*y[a-z]*[,\s]*)?` +
	`(?:([0-9]+)\s*mo[a-z]*[,\s]*)?` +
	`(?:([0-9]+)\s*w[a-z]*[,\s]*)?` +
	`(?:([0-9]+)\s*d[a-z]*[,\s]*)?` +
	`(?:([0-9]+)\s*h[a-z]*[,\s]*)?` +
	`(?:([0-9]+)\s*m[a-z]*[,\s]*)?` +
	`(?:([0-9]+)\s*(?:s[a-z]*)?)?$`)

// durationUnits lines up with the capture groups of durationPattern.
var durationUnits = [...]time.Duration{
	365 * Day,
	30 * Day,
	7 * Day,
	Day,
	time.Hour,
	time.Minute,
	time.Second,
}

// ParseDuration parses a human duration such as "30d", "1w 2d" or "3 hours".
// Years are 365 days and months are 30 days.
func ParseDuration(input string) (time.Duration, error) {
	if input == "" {
		return 0, ErrEmptyDuration
	}

	groups := durationPattern.FindStringSubmatch(input)
	if groups == nil || groups[0] == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
	}

	var total time.Duration
	for i, unit := range durationUnits {
		value := groups[i+1]
		if value == "" {
			continue
		}

		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n > int64(math.MaxInt64/unit) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
		}

		part := time.Duration(n) * unit
		if total > math.MaxInt64-part {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, input)
		}
		total += part
	}

	if total <= 0 {
		return 0, ErrNonPositiveDuration
	}

	return total, nil
}

// FormatDuration renders a duration as "1 day, 2 hours, 5 minutes".
// Anything below one second is reported as "less than a second".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "less than a second"
	}

	parts := make([]string, 0, 4)
	for _, unit := range []struct {
		size time.Duration
		name string
	}{
		{Day, "day"},
		{time.Hour, "hour"},
		{time.Minute, "minute"},
		{time.Second, "second"},
	} {
		n := d / unit.size
		if n == 0 {
			continue
		}
		d -= n * unit.size

		if n == 1 {
			parts = append(parts, "1 "+unit.name)
		} else {
			parts = append(parts, fmt.Sprintf("%d %ss", n, unit.name))
		}
	}

	return strings.Join(parts, ", ")
}

// FormatCompact renders a duration as "1d 6h 30m".
// Intermediate zero units are kept when a larger and a smaller unit are both present.
func FormatCompact(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}

	days := d / Day
	d -= days * Day
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	var sb strings.Builder
	if days > 0 {
		fmt.Fprintf(&sb, "%dd ", days)
	}
	if hours > 0 || (days > 0 && (minutes > 0 || seconds > 0)) {
		fmt.Fprintf(&sb, "%dh ", hours)
	}
	if minutes > 0 || (hours > 0 && seconds > 0) {
		fmt.Fprintf(&sb, "%dm ", minutes)
	}
	if seconds > 0 || sb.Len() == 0 {
		fmt.Fprintf(&sb, "%ds", seconds)
	}

	return strings.TrimSpace(sb.String())
}

// FormatRemaining renders the time left until a deadline, or "Expired" once it passed.
func FormatRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "Expired"
	}

	return FormatDuration(remaining)
}

// TimestampLayout is the day-first layout used in player-facing messages.
const TimestampLayout = "02/01/2006 15:04:05"

// FormatTimestamp renders a point in time using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
