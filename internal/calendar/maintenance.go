package calendar

import (
	"context"
	"fmt"
	"time"

	"opsdash/internal/recur"
)

// maintenanceSource is synthetic: it reads nothing and instead projects the
// upcoming maintenance windows live from the recurrence rules. These are
// informational calendar entries, distinct from the executable
// scheduled_tasks rows the scheduler owns.
type maintenanceSource struct {
	weekdays []time.Weekday
	hour     int
	weeks    int
	now      func() time.Time
}

// NewMaintenanceSource projects maintenance windows for the next `weeks`
// weeks on the given weekdays at the given local hour.
func NewMaintenanceSource(weekdays []time.Weekday, hour, weeks int, now func() time.Time) Source {
	if len(weekdays) == 0 {
		weekdays = []time.Weekday{time.Tuesday, time.Friday}
	}
	if weeks <= 0 {
		weeks = 12
	}
	if now == nil {
		now = time.Now
	}
	return &maintenanceSource{weekdays: weekdays, hour: hour, weeks: weeks, now: now}
}

func (s *maintenanceSource) Name() string    { return "maintenance" }
func (s *maintenanceSource) Kind() Type      { return TypeMaintenance }
func (s *maintenanceSource) Expensive() bool { return false }

func (s *maintenanceSource) Events(ctx context.Context, f Filter) ([]Event, error) {
	ref := s.now()
	anchor := time.Date(ref.Year(), ref.Month(), ref.Day(), s.hour, 0, 0, 0, ref.Location())

	var out []Event
	for _, wd := range s.weekdays {
		occs, err := recur.Occurrences(anchor, recur.WeeklyOn(wd), s.weeks)
		if err != nil {
			return nil, fmt.Errorf("maintenance source: %w", err)
		}
		for _, occ := range occs {
			out = append(out, Event{
				ID:             "maintenance_" + occ.Format("2006-01-02"),
				Title:          "Maintenance window (" + occ.Weekday().String() + ")",
				Date:           occ,
				Type:           TypeMaintenance,
				Category:       "operations",
				Priority:       PriorityMedium,
				Status:         StatusPending,
				ContextSummary: "Recurring ecosystem maintenance run",
			})
		}
	}
	return out, nil
}
