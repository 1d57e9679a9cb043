// Package timeutil provides time formatting helpers for jeebot.
//
// Chat messages and quiz attempts are stored as Unix nanoseconds (int64).
// This package turns them into the strings shown by the TUI, the CLI and
// the performance report.
package timeutil

import (
	"fmt"
	"time"
)

// FromNano converts a Unix nanosecond timestamp to time.Time.
func FromNano(ns int64) time.Time {
	return time.Unix(0, ns)
}

// ToNano converts a time.Time to Unix nanoseconds.
func ToNano(t time.Time) int64 {
	return t.UnixNano()
}

// NowNano returns the current time as Unix nanoseconds.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// FormatClock formats a timestamp as the short clock time shown next to
// chat messages. Format: "3:04 PM"
func FormatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatDate formats a Unix nanosecond timestamp for test history.
// Format: "02 Jan 2006, 3:04 PM"
func FormatDate(ns int64) string {
	return FromNano(ns).Format("02 Jan 2006, 3:04 PM")
}

// FormatElapsed formats a duration spent on a question.
// Examples: "450ms", "12.5s", "2m 15s"
func FormatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) - minutes*60
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}

// RelativeTime returns how long ago ns was, measured from now.
// Examples: "just now", "5s ago", "2m ago", "1h ago", "3d ago"
func RelativeTime(ns int64, now time.Time) string {
	diff := now.Sub(FromNano(ns))

	switch {
	case diff < time.Second:
		return "just now"
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
}
