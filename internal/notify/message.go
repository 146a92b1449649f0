package notify

import (
	"fmt"
	"time"
)

// BuildMessage renders the cancellation sentence for one lesson. The wording
// depends on how far away the scheduled start is from now: same day, next
// day, the day after, or a dated fallback for anything further out or in a
// different year. Pure function; callers inject the clock.
func BuildMessage(subject string, start, now time.Time) string {
	if start.Year() != now.Year() {
		return dated(subject, start)
	}
	switch daysUntil(now, start) {
	case 0:
		return fmt.Sprintf("%s entfällt heute.", subject)
	case 1:
		return fmt.Sprintf("%s entfällt morgen.", subject)
	case 2:
		return fmt.Sprintf("%s entfällt übermorgen.", subject)
	default:
		return dated(subject, start)
	}
}

func dated(subject string, start time.Time) string {
	return fmt.Sprintf("%s am %d.%d entfällt.", subject, start.Day(), int(start.Month()))
}

func daysUntil(now, start time.Time) int {
	a := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
