package reminders

import (
	"testing"
	"time"

	"github.com/angelmondragon/crewtext-backend/pkg/types"
)

func TestNormalizeStartTime(t *testing.T) {
	date := types.MustParseDate("2025-01-10")
	want := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	for _, raw := range []string{
		"09:00:00",
		"09:00",
		" 09:00:00 ",
		"09:00:00+00",
		"04:00:00-05",
		"2025-01-10T09:00:00Z",
		"2025-01-10T09:00:00.000Z",
		"2025-01-10 09:00:00",
		"2025-01-10T04:00:00-05:00",
		"2025-01-03T09:00:00Z",
	} {
		got, err := NormalizeStartTime(date, raw)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: expected %s, got %s", raw, want, got)
		}
	}
}

func TestNormalizeStartTimeRejectsGarbage(t *testing.T) {
	date := types.MustParseDate("2025-01-10")
	for _, raw := range []string{"", "soon", "25:00", "2025-01-10"} {
		if _, err := NormalizeStartTime(date, raw); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
	if _, err := NormalizeStartTime(types.Date{}, "09:00"); err == nil {
		t.Fatal("expected error for empty work date")
	}
}
