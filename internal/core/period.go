package core

import (
	"strings"
	"time"
)

// Period is a normalized reporting window keyword.
type Period string

const (
	PeriodDay      Period = "day"
	PeriodWeek     Period = "week"
	PeriodMonth    Period = "month"
	PeriodYear     Period = "year"
	PeriodAllTime  Period = "alltime"
	PeriodAll      Period = "all"
	PeriodLifetime Period = "lifetime"

	DefaultPeriod = PeriodWeek
)

// Bounds of the all-time window. Unknown keywords resolve to it as well.
const (
	AllTimeStartYear = 2000
	AllTimeEndYear   = 2050
)

// DateRange is an inclusive reporting interval.
type DateRange struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// Contains reports whether t falls inside the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.StartDate) && !t.After(r.EndDate)
}

// Days returns the number of calendar days the range covers.
func (r DateRange) Days() int {
	start := r.StartDate
	end := r.EndDate.In(start.Location())
	n := 0
	for d := start; !d.After(end); d = time.Date(d.Year(), d.Month(), d.Day()+1, 0, 0, 0, 0, d.Location()) {
		n++
	}
	return n
}

// SupportedPeriods lists the keywords that resolve to a bounded window
// plus the all-time aliases.
func SupportedPeriods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAllTime, PeriodAll, PeriodLifetime}
}

// NormalizePeriod lower-cases the keyword, drops '-' and '_' and trims it,
// so "ALL_TIME", "all-time" and "alltime" compare equal.
func NormalizePeriod(keyword string) Period {
	s := strings.ToLower(keyword)
	s = strings.NewReplacer("-", "", "_", "").Replace(s)
	return Period(strings.TrimSpace(s))
}

// IsKnown reports whether p names a supported window.
func (p Period) IsKnown() bool {
	for _, k := range SupportedPeriods() {
		if p == k {
			return true
		}
	}
	return false
}

// ResolvePeriod maps a keyword to a concrete range anchored at now, in
// now's location. Unrecognized keywords fall back to all-time.
func ResolvePeriod(keyword string, now time.Time) DateRange {
	loc := now.Location()
	y, m, d := now.Date()

	switch NormalizePeriod(keyword) {
	case PeriodDay:
		return DateRange{StartDate: startOfDay(y, m, d, loc), EndDate: endOfDay(y, m, d, loc)}
	case PeriodWeek:
		// weeks start on Sunday
		sd := d - int(now.Weekday())
		return DateRange{StartDate: startOfDay(y, m, sd, loc), EndDate: endOfDay(y, m, sd+6, loc)}
	case PeriodMonth:
		// day 0 of the next month is the last day of this one
		return DateRange{StartDate: startOfDay(y, m, 1, loc), EndDate: endOfDay(y, m+1, 0, loc)}
	case PeriodYear:
		return DateRange{StartDate: startOfDay(y, time.January, 1, loc), EndDate: endOfDay(y, time.December, 31, loc)}
	default:
		return AllTime(loc)
	}
}

// AllTime returns the fixed far-past to far-future window.
func AllTime(loc *time.Location) DateRange {
	return DateRange{
		StartDate: startOfDay(AllTimeStartYear, time.January, 1, loc),
		EndDate:   endOfDay(AllTimeEndYear, time.December, 31, loc),
	}
}

func startOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func endOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}
