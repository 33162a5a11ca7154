package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateTime wraps an absolute instant taken from Docker metadata. It is the
// only value type the before()/after() rule methods accept as receiver.
type DateTime struct {
	time.Time
}

// ParseDockerDate parses a timestamp as emitted by `docker inspect`.
// Docker uses year-1 timestamps as "invalid date", e.g. State.FinishedAt
// while a container is still running; those never parse, so age rules
// cannot match them.
func ParseDockerDate(s string) (DateTime, bool) {
	if strings.HasPrefix(s, "0001-") {
		return DateTime{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{t}, true
		}
	}
	return DateTime{}, false
}

// absoluteLayouts are tried in order for absolute date specs. Layouts
// without a zone are interpreted as local time.
var absoluteLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// relativeSpec matches strings like "1 week ago" or "1 day, 2 hours ago".
var relativeSpec = regexp.MustCompile(`(?i)^\s*` +
	`(?:(\d+)\s+years?,?\s+)?` +
	`(?:(\d+)\s+months?,?\s+)?` +
	`(?:(\d+)\s+weeks?,?\s+)?` +
	`(?:(\d+)\s+days?,?\s+)?` +
	`(?:(\d+)\s+hours?,?\s+)?` +
	`(?:(\d+)\s+minutes?,?\s+)?` +
	`(?:(\d+)\s+seconds?,?\s+)?` +
	`ago\s*$`)

// ParseDateSpec resolves an absolute timestamp or a relative "<N> <unit>
// ago" expression against the supplied now. Relative specs always resolve
// against the same run-wide now so that all comparisons within one run
// agree.
func ParseDateSpec(spec string, now time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(spec)
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, nil
		}
	}

	m := relativeSpec.FindStringSubmatch(spec)
	if m == nil {
		return time.Time{}, fmt.Errorf("cannot parse date spec %q", spec)
	}

	fields := make([]int, 7)
	seen := false
	for i := range fields {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, fmt.Errorf("cannot parse date spec %q: %w", spec, err)
		}
		fields[i] = n
		seen = true
	}
	if !seen {
		return time.Time{}, fmt.Errorf("date spec %q contains no date or time info", spec)
	}

	years, months, weeks, days, hours, minutes, seconds := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5], fields[6]
	t := now.AddDate(-years, -months, -(weeks*7 + days))
	t = t.Add(-time.Duration(hours)*time.Hour -
		time.Duration(minutes)*time.Minute -
		time.Duration(seconds)*time.Second)
	return t, nil
}
