package jobs

import (
	"fmt"
	"strings"
	"time"
)

// HumanDuration renders a duration as a full sentence fragment, for example
// "1 day, 3 hours, 0 minutes, and 12 seconds". Every unit down to seconds is
// included even when zero so that waits read unambiguously.
func HumanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d.Round(time.Second) / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := []string{
		plural(days, "day"),
		plural(hours, "hour"),
		plural(minutes, "minute"),
		plural(seconds, "second"),
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatTimestamp renders a refresh timestamp the way status messages show
// it to athletes.
func FormatTimestamp(t time.Time) string {
	return t.Format("02/01/2006 15:04:05")
}
