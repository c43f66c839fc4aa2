package dispatch

import (
	"testing"
	"time"

	"github.com/kindredapp/kindred/internal/models"
)

// at builds a timestamp on the given weekday at the given hour.
// 2024-01-01 is a Monday.
func at(t *testing.T, weekday time.Weekday, hour int) time.Time {
	t.Helper()
	base := time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
	for base.Weekday() != weekday {
		base = base.AddDate(0, 0, 1)
	}
	return base
}

func TestEligible(t *testing.T) {
	cases := []struct {
		name      string
		frequency string
		now       time.Time
		want      bool
	}{
		{"never at send hour", models.FrequencyNever, at(t, time.Monday, 9), false},
		{"never off hours", models.FrequencyNever, at(t, time.Wednesday, 3), false},
		{"often at send hour", models.FrequencyOften, at(t, time.Monday, 9), true},
		{"often off hours", models.FrequencyOften, at(t, time.Saturday, 23), true},
		{"daily at send hour", models.FrequencyDaily, at(t, time.Thursday, 9), true},
		{"daily at 14h", models.FrequencyDaily, at(t, time.Thursday, 14), false},
		{"weekly monday 9h", models.FrequencyWeekly, at(t, time.Monday, 9), true},
		{"weekly tuesday 9h", models.FrequencyWeekly, at(t, time.Tuesday, 9), false},
		{"weekly monday 14h", models.FrequencyWeekly, at(t, time.Monday, 14), false},
		{"unknown frequency", "fortnightly", at(t, time.Monday, 9), false},
		{"empty frequency", "", at(t, time.Monday, 9), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Eligible(c.frequency, c.now, 9, time.Monday)
			if got != c.want {
				t.Errorf("Eligible(%q, %v) = %v, want %v", c.frequency, c.now, got, c.want)
			}
			// Pure: a second call with identical inputs agrees.
			if again := Eligible(c.frequency, c.now, 9, time.Monday); again != got {
				t.Errorf("Eligible not deterministic for %q", c.frequency)
			}
		})
	}
}

func TestEligible_ConfigurableWindow(t *testing.T) {
	now := at(t, time.Friday, 17)
	if !Eligible(models.FrequencyDaily, now, 17, time.Friday) {
		t.Error("daily at configured hour 17 should be eligible")
	}
	if !Eligible(models.FrequencyWeekly, now, 17, time.Friday) {
		t.Error("weekly on configured Friday 17h should be eligible")
	}
	if Eligible(models.FrequencyWeekly, now, 17, time.Monday) {
		t.Error("weekly gate should respect the configured weekday")
	}
}
