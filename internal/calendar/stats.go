package calendar

import (
	"context"
	"time"
)

// Stats aggregates counts without materializing the merged timeline.
type Stats struct {
	Total  int
	ByType map[Type]int

	// Current-calendar-month activity for the writing-heavy categories.
	JournalThisMonth      int
	IntelligenceThisMonth int

	// Maintenance occurrences still pending within the current ISO week.
	MaintenanceDueThisWeek int
}

// Stats consults only the cheap sources. The expensive meeting fetch and the
// full merge are deliberately skipped: when the caller wants counts, paying
// for the whole timeline is wasted work.
func (a *Aggregator) Stats(ctx context.Context, now time.Time) Stats {
	st := Stats{ByType: make(map[Type]int)}

	cheap := make([]Source, 0, len(a.sources))
	for _, src := range a.sources {
		if src.Expensive() {
			continue
		}
		cheap = append(cheap, src)
	}

	events := a.collect(ctx, cheap, Filter{})

	monthStart, monthEnd := monthWindow(now)
	weekStart, weekEnd := isoWeekWindow(now)

	for _, e := range events {
		st.Total++
		st.ByType[e.Type]++

		switch e.Type {
		case TypeJournal:
			if within(e.Date, monthStart, monthEnd) {
				st.JournalThisMonth++
			}
		case TypeIntelligence:
			if within(e.Date, monthStart, monthEnd) {
				st.IntelligenceThisMonth++
			}
		case TypeMaintenance:
			if e.Status == StatusPending && within(e.Date, weekStart, weekEnd) {
				st.MaintenanceDueThisWeek++
			}
		}
	}
	return st
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// isoWeekWindow returns the Monday-start week containing now.
func isoWeekWindow(now time.Time) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
