package reminders

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/types"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05",
}

var clockLayouts = []string{
	"15:04:05Z07:00",
	"15:04:05-07",
	"15:04:05.999999999",
	"15:04:05",
	"15:04",
}

// NormalizeStartTime turns a stored start_time into a UTC instant on the
// assignment's work date. The value may be a full ISO timestamp or a bare
// time of day; either way only its UTC clock reading is used, combined with
// the work date's calendar components.
func NormalizeStartTime(workDate types.Date, raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("start time is empty")
	}
	if workDate.IsZero() {
		return time.Time{}, fmt.Errorf("work date is empty")
	}

	clock, err := parseClock(value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(workDate.Year, workDate.Month, workDate.Day,
		clock.Hour(), clock.Minute(), clock.Second(), 0, time.UTC), nil
}

func parseClock(value string) (time.Time, error) {
	if strings.ContainsAny(value, "T-") && len(value) >= len("2006-01-02") && value[4] == '-' {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable start time %q", value)
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable start time %q", value)
}
