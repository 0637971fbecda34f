package pkg

import (
	"fmt"
	"time"
)

// RemainingTimeString formats the time left as "Xd Yh Zm", "0d 0h 0m" once elapsed.
func RemainingTimeString(remaining time.Duration) string {
	if remaining <= 0 {
		return "0d 0h 0m"
	}

	days := int(remaining / (24 * time.Hour))
	remaining -= time.Duration(days) * 24 * time.Hour
	hours := int(remaining / time.Hour)
	remaining -= time.Duration(hours) * time.Hour
	minutes := int(remaining / time.Minute)

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func FormatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
