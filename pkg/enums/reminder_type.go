package enums

// ReminderType identifies which reminder template applies to an assignment at
// a given instant. It is derived on every evaluation and never stored.
type ReminderType string

const (
	ReminderThreeDaysBefore ReminderType = "THREE_DAYS_BEFORE"
	ReminderTwoDaysBefore   ReminderType = "TWO_DAYS_BEFORE"
	ReminderDayBefore       ReminderType = "DAY_BEFORE"
	ReminderMorningOf       ReminderType = "MORNING_OF"
	ReminderHourBefore      ReminderType = "HOUR_BEFORE"
	ReminderFollowUp        ReminderType = "FOLLOW_UP"
)

// AllReminderTypes lists every type in chronological order.
var AllReminderTypes = []ReminderType{
	ReminderThreeDaysBefore,
	ReminderTwoDaysBefore,
	ReminderDayBefore,
	ReminderMorningOf,
	ReminderHourBefore,
	ReminderFollowUp,
}

func (r ReminderType) String() string {
	return string(r)
}

func (r ReminderType) IsValid() bool {
	for _, candidate := range AllReminderTypes {
		if candidate == r {
			return true
		}
	}
	return false
}
