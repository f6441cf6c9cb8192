package timecalc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID creates a unique task ID.
func NewID() string {
	return uuid.New().String()
}

// ShortID returns the first eight characters of an ID for display.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// FormatDuration formats a duration as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatClock formats a duration as H:MM:SS. Hours are not padded and may
// exceed 24.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// FormatLogTime formats a Unix millisecond timestamp as local HH:MM.
func FormatLogTime(ms int64) string {
	return time.UnixMilli(ms).Format("15:04")
}

// FormatHours renders an hour bound without trailing zeros ("4", "0.5").
func FormatHours(h float64) string {
	return fmt.Sprintf("%g", h)
}
