package attendance

import (
	"testing"
	"time"
)

func TestParsePeriod_FallsBackToDaily(t *testing.T) {
	cases := map[string]Period{
		"daily":   PeriodDaily,
		"weekly":  PeriodWeekly,
		"monthly": PeriodMonthly,
		"":        PeriodDaily,
		"yearly":  PeriodDaily,
		"WEEKLY":  PeriodDaily,
	}
	for in, want := range cases {
		if got := ParsePeriod(in); got != want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPeriodThreshold(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 45, 0, time.UTC)

	if got := PeriodDaily.Threshold(now); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("daily threshold = %v, want start of day", got)
	}
	if got := PeriodWeekly.Threshold(now); !got.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Errorf("weekly threshold = %v, want now-7d", got)
	}
	if got := PeriodMonthly.Threshold(now); !got.Equal(now.Add(-30 * 24 * time.Hour)) {
		t.Errorf("monthly threshold = %v, want now-30d", got)
	}
	if got := Period("bogus").Threshold(now); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unrecognized period threshold = %v, want start of day", got)
	}
}

func TestPeriodTitle(t *testing.T) {
	if got := PeriodWeekly.Title(); got != "Weekly" {
		t.Errorf("Title() = %q, want Weekly", got)
	}
	if got := Period("").Title(); got != "" {
		t.Errorf("empty period Title() = %q, want empty", got)
	}
}
