package charging

import "fmt"

// FormatMinutes renders a duration in minutes as "2h 35m", "45m" or "<1m"
// for human-readable notifications.
func FormatMinutes(minutes int) string {
	if minutes < 1 {
		return "<1m"
	}
	hours := minutes / 60
	rem := minutes % 60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", rem)
	case rem == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, rem)
	}
}
