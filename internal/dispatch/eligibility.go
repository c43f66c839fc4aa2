package dispatch

import (
	"time"

	"github.com/kindredapp/kindred/internal/models"
)

// Eligible decides whether a persona with the given message frequency is due
// for a proactive message at now. Pure: same inputs, same answer. The tick
// cadence is hourly, so "daily" and "weekly" are hour-of-day (and
// day-of-week) gates on top of it rather than independent timers.
func Eligible(frequency string, now time.Time, sendHour int, sendWeekday time.Weekday) bool {
	switch frequency {
	case models.FrequencyOften:
		return true
	case models.FrequencyDaily:
		return now.Hour() == sendHour
	case models.FrequencyWeekly:
		return now.Weekday() == sendWeekday && now.Hour() == sendHour
	case models.FrequencyNever:
		return false
	default:
		// Unknown frequency values are treated as "never" rather than
		// guessed at; the editor boundary validates the enum.
		return false
	}
}
