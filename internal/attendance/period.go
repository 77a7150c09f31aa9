package attendance

import (
	"strings"
	"time"
)

// Period bounds report queries to a rolling or calendar-aligned window.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod maps a query-string value to a Period. Anything unrecognized,
// including the empty string, falls back to daily.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodWeekly:
		return PeriodWeekly
	case PeriodMonthly:
		return PeriodMonthly
	default:
		return PeriodDaily
	}
}

// Threshold returns the earliest instant inside the period: start of the
// current calendar day for daily, now minus 7 or 30 days for weekly/monthly.
func (p Period) Threshold(now time.Time) time.Time {
	switch p {
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonthly:
		return now.Add(-30 * 24 * time.Hour)
	default:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
}

// Title renders the period for report headers ("Daily", "Weekly", "Monthly").
func (p Period) Title() string {
	s := string(p)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
