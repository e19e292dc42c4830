package calendar

import (
	"context"
	"testing"
	"time"
)

func TestMaintenanceSourceProjection(t *testing.T) {
	t.Parallel()
	now := func() time.Time {
		return time.Date(2025, time.August, 18, 14, 30, 0, 0, time.UTC) // Monday
	}
	src := NewMaintenanceSource([]time.Weekday{time.Tuesday, time.Friday}, 9, 4, now)

	events, err := src.Events(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("len = %d, want 4 weeks x 2 weekdays = 8", len(events))
	}

	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if seen[e.ID] {
			t.Fatalf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
		if e.Type != TypeMaintenance {
			t.Fatalf("event %s has type %s", e.ID, e.Type)
		}
		if e.Status != StatusPending {
			t.Fatalf("event %s has status %s, want pending", e.ID, e.Status)
		}
		if wd := e.Date.Weekday(); wd != time.Tuesday && wd != time.Friday {
			t.Fatalf("event %s falls on %v", e.ID, wd)
		}
		if e.Date.Hour() != 9 {
			t.Fatalf("event %s at hour %d, want 9", e.ID, e.Date.Hour())
		}
		if e.Date.Before(now()) {
			t.Fatalf("event %s is in the past: %v", e.ID, e.Date)
		}
	}
}

func TestMaintenanceSourceDefaults(t *testing.T) {
	t.Parallel()
	src := NewMaintenanceSource(nil, 9, 0, nil)
	events, err := src.Events(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if len(events) != 24 {
		t.Fatalf("len = %d, want 12 weeks x 2 default weekdays = 24", len(events))
	}
}
