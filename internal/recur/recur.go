// Package recur generates deterministic occurrence sequences for the
// dashboard's recurring jobs. It is a pure date calculator: no clock, no
// storage. Callers discard past occurrences themselves.
package recur

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// BiweeklyPeriodDays is the inclusive length of one biweekly period minus
// one day: a period starting on occurrence i ends 13 days later, the day
// before occurrence i+1.
const BiweeklyPeriodDays = 13

// Cadence describes one recurrence rule.
type Cadence struct {
	kind    cadenceKind
	weekday time.Weekday
}

type cadenceKind int

const (
	kindWeekly cadenceKind = iota
	kindBiweekly
)

// WeeklyOn recurs once per week-block on the given weekday.
func WeeklyOn(wd time.Weekday) Cadence {
	return Cadence{kind: kindWeekly, weekday: wd}
}

// Biweekly recurs every 14 days starting at the anchor.
func Biweekly() Cadence {
	return Cadence{kind: kindBiweekly}
}

// Tag returns the cadence label stored on ScheduledTask.Schedule.
func (c Cadence) Tag() string {
	switch c.kind {
	case kindBiweekly:
		return "biweekly"
	default:
		return "weekly_" + shortDay(c.weekday)
	}
}

// Occurrences expands the cadence into exactly count strictly increasing
// timestamps, starting from the anchor's week (weekly) or the anchor itself
// (biweekly). The anchor's time of day and location are preserved.
func Occurrences(anchor time.Time, c Cadence, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, fmt.Errorf("recur: count must be positive, got %d", count)
	}

	opt := rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: anchor,
		Count:   count,
	}
	switch c.kind {
	case kindWeekly:
		// First occurrence is the requested weekday within the anchor's
		// week-block (the anchor itself when the weekdays match).
		opt.Byweekday = []rrule.Weekday{rruleWeekday(c.weekday)}
	case kindBiweekly:
		opt.Interval = 2
	default:
		return nil, fmt.Errorf("recur: unknown cadence kind %d", c.kind)
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recur: build rule: %w", err)
	}

	loc := anchor.Location()
	occs := r.All()
	if len(occs) != count {
		return nil, fmt.Errorf("recur: expected %d occurrences, got %d", count, len(occs))
	}
	out := make([]time.Time, len(occs))
	for i, t := range occs {
		out[i] = t.In(loc)
	}
	return out, nil
}

// PeriodEnd returns the last day covered by a biweekly period starting at occ.
func PeriodEnd(occ time.Time) time.Time {
	return occ.AddDate(0, 0, BiweeklyPeriodDays)
}

// rrule weekdays are Monday-based; time.Weekday is Sunday-based.
func rruleWeekday(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

func shortDay(wd time.Weekday) string {
	switch wd {
	case time.Sunday:
		return "sun"
	case time.Monday:
		return "mon"
	case time.Tuesday:
		return "tue"
	case time.Wednesday:
		return "wed"
	case time.Thursday:
		return "thu"
	case time.Friday:
		return "fri"
	default:
		return "sat"
	}
}
