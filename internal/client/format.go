package client

import (
	"fmt"
	"math"
)

// FormatDuration renders seconds as HH:MM:SS. Hours are not wrapped at 24 or
// capped at two digits; negative input renders as 00:00:00.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}
