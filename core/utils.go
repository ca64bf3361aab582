package core

import (
	"math"
	"strings"
	"time"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// DeltaDays converts a duration to a number of days, rounding up.
func DeltaDays(delta time.Duration) int {
	return int(math.Ceil(delta.Hours() / 24))
}

// Days is a convenience for configuration windows expressed in days.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
