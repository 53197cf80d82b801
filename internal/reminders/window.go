package reminders

import (
	"math"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/enums"
)

// Bucket is a half-open range [MinHours, MaxHours) of hours until start.
type Bucket struct {
	Type     enums.ReminderType
	MinHours float64
	MaxHours float64
}

func (b Bucket) Contains(hours float64) bool {
	return hours >= b.MinHours && hours < b.MaxHours
}

// WindowTable ties the classifier ranges to the offsets the candidate
// queries use. Both sides read the same table.
//
// The buckets leave 6-12h and 60h+ unassigned. Those assignments only reach
// the classifier through the catch-all date query and fall through to
// FOLLOW_UP.
type WindowTable struct {
	Buckets                 []Bucket
	DayBeforeOffsetDays     int
	TwoDaysBeforeOffsetDays int
	MorningOfHoursAhead     int
}

var Windows = WindowTable{
	Buckets: []Bucket{
		{Type: enums.ReminderTwoDaysBefore, MinHours: 36, MaxHours: 60},
		{Type: enums.ReminderDayBefore, MinHours: 12, MaxHours: 36},
		{Type: enums.ReminderMorningOf, MinHours: 2, MaxHours: 6},
		{Type: enums.ReminderHourBefore, MinHours: 0.5, MaxHours: 2},
	},
	DayBeforeOffsetDays:     1,
	TwoDaysBeforeOffsetDays: 2,
	MorningOfHoursAhead:     2,
}

// MorningHours resolves a configured morning-of horizon. Non-positive values
// use the table default; larger values are capped so a start at the horizon
// still lands in a bucket instead of FOLLOW_UP.
func (w WindowTable) MorningHours(configured int) int {
	if configured <= 0 {
		return w.MorningOfHoursAhead
	}
	if limit := w.maxMorningHours(); configured > limit {
		return limit
	}
	return configured
}

func (w WindowTable) maxMorningHours() int {
	for _, bucket := range w.Buckets {
		if bucket.Type == enums.ReminderMorningOf {
			return int(math.Ceil(bucket.MaxHours)) - 1
		}
	}
	return w.MorningOfHoursAhead
}

// Classify returns the first bucket containing the hours between now and
// startsAt, or FOLLOW_UP when none does.
func (w WindowTable) Classify(now, startsAt time.Time) enums.ReminderType {
	hours := startsAt.Sub(now).Hours()
	for _, bucket := range w.Buckets {
		if bucket.Contains(hours) {
			return bucket.Type
		}
	}
	return enums.ReminderFollowUp
}

// ClassifyReminderType classifies against the shared window table.
func ClassifyReminderType(now, startsAt time.Time) enums.ReminderType {
	return Windows.Classify(now, startsAt)
}
