package reminders

import (
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/types"
)

const (
	DefaultDayOfMinGap    = 4 * time.Hour
	DefaultOtherDayMinGap = 24 * time.Hour
)

// GapPolicy is the minimum time between reminders for one assignment.
type GapPolicy struct {
	DayOf    time.Duration
	OtherDay time.Duration
}

func DefaultGapPolicy() GapPolicy {
	return GapPolicy{DayOf: DefaultDayOfMinGap, OtherDay: DefaultOtherDayMinGap}
}

func (p GapPolicy) normalized() GapPolicy {
	if p.DayOf <= 0 {
		p.DayOf = DefaultDayOfMinGap
	}
	if p.OtherDay <= 0 {
		p.OtherDay = DefaultOtherDayMinGap
	}
	return p
}

// NotRecentlyReminded drops settled assignments and those reminded inside the
// gap. An assignment working today needs more than p.DayOf since its last
// reminder; any other date needs more than p.OtherDay.
func NotRecentlyReminded(assignments []Assignment, now time.Time, today types.Date, p GapPolicy) []Assignment {
	p = p.normalized()
	out := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.ConfirmationStatus.IsSettled() {
			continue
		}
		if a.LastReminderTime == nil {
			out = append(out, a)
			continue
		}
		gap := p.OtherDay
		if a.WorkDate.String() == today.String() {
			gap = p.DayOf
		}
		if now.Sub(*a.LastReminderTime) > gap {
			out = append(out, a)
		}
	}
	return out
}
