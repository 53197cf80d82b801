package reminders

import (
	"testing"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/enums"
)

func TestClassifyReminderType(t *testing.T) {
	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		until time.Duration
		want  enums.ReminderType
	}{
		{"two days out", 48 * time.Hour, enums.ReminderTwoDaysBefore},
		{"lower edge of two days", 36 * time.Hour, enums.ReminderTwoDaysBefore},
		{"day before", 24 * time.Hour, enums.ReminderDayBefore},
		{"lower edge of day before", 12 * time.Hour, enums.ReminderDayBefore},
		{"gap between morning and day before", 8 * time.Hour, enums.ReminderFollowUp},
		{"morning of", 3 * time.Hour, enums.ReminderMorningOf},
		{"hour before", time.Hour, enums.ReminderHourBefore},
		{"half hour edge", 30 * time.Minute, enums.ReminderHourBefore},
		{"too close", 10 * time.Minute, enums.ReminderFollowUp},
		{"already started", -time.Hour, enums.ReminderFollowUp},
		{"far future", 72 * time.Hour, enums.ReminderFollowUp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := start.Add(-tc.until)
			if got := ClassifyReminderType(now, start); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestWindowBucketsDoNotOverlap(t *testing.T) {
	for i, a := range Windows.Buckets {
		if a.MinHours >= a.MaxHours {
			t.Fatalf("bucket %s has an empty range", a.Type)
		}
		for _, b := range Windows.Buckets[i+1:] {
			if a.MinHours < b.MaxHours && b.MinHours < a.MaxHours {
				t.Fatalf("buckets %s and %s overlap", a.Type, b.Type)
			}
		}
	}
}

func TestQueryOffsetsLandInsideBuckets(t *testing.T) {
	now := time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC)
	dayBefore := now.Add(time.Duration(Windows.DayBeforeOffsetDays) * 24 * time.Hour)
	if got := ClassifyReminderType(now, dayBefore); got != enums.ReminderDayBefore {
		t.Fatalf("day-before offset classified as %s", got)
	}
	twoDays := now.Add(time.Duration(Windows.TwoDaysBeforeOffsetDays) * 24 * time.Hour)
	if got := ClassifyReminderType(now, twoDays); got != enums.ReminderTwoDaysBefore {
		t.Fatalf("two-days offset classified as %s", got)
	}
	for configured := -1; configured <= 12; configured++ {
		hours := Windows.MorningHours(configured)
		start := now.Add(time.Duration(hours) * time.Hour)
		if got := ClassifyReminderType(now, start); got == enums.ReminderFollowUp {
			t.Fatalf("morning horizon %d (configured %d) classified as %s", hours, configured, got)
		}
	}
}

func TestMorningHoursClamp(t *testing.T) {
	cases := map[int]int{-3: 2, 0: 2, 1: 1, 2: 2, 4: 4, 5: 5, 6: 5, 24: 5}
	for configured, want := range cases {
		if got := Windows.MorningHours(configured); got != want {
			t.Fatalf("MorningHours(%d) = %d, want %d", configured, got, want)
		}
	}
}
