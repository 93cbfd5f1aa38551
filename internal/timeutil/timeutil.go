package timeutil

import (
	"strings"
	"time"
)

// ParseDurationOrDefault parses duration and returns def on empty or invalid value.
func ParseDurationOrDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

// PerMinute converts a per-minute count into the interval between two events.
// Non-positive counts yield zero.
func PerMinute(count int) time.Duration {
	if count <= 0 {
		return 0
	}
	return time.Minute / time.Duration(count)
}
