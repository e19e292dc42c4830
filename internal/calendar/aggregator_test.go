package calendar

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	logx "opsdash/pkg/logx"
)

type fakeSource struct {
	name      string
	kind      Type
	expensive bool
	events    []Event
	err       error
	panics    bool
	calls     atomic.Int64
}

func (s *fakeSource) Name() string    { return s.name }
func (s *fakeSource) Kind() Type      { return s.kind }
func (s *fakeSource) Expensive() bool { return s.expensive }

func (s *fakeSource) Events(ctx context.Context, f Filter) ([]Event, error) {
	s.calls.Add(1)
	if s.panics {
		panic("fake source exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestEventsSortedDescending(t *testing.T) {
	t.Parallel()
	agg := NewAggregator([]Source{
		&fakeSource{name: "journal", kind: TypeJournal, events: []Event{
			{ID: "journal_1", Type: TypeJournal, Date: day(2025, time.January, 10)},
		}},
		&fakeSource{name: "reminders", kind: TypeReminder, events: []Event{
			{ID: "reminder_1", Type: TypeReminder, Date: day(2025, time.January, 5)},
		}},
	}, time.Second, logx.Nop())

	got := agg.Events(context.Background(), Filter{})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "journal_1" || got[1].ID != "reminder_1" {
		t.Fatalf("order = [%s %s], want [journal_1 reminder_1]", got[0].ID, got[1].ID)
	}
}

func TestEqualDatesBreakTiesByID(t *testing.T) {
	t.Parallel()
	d := day(2025, time.March, 3)
	agg := NewAggregator([]Source{
		&fakeSource{name: "b", kind: TypeReminder, events: []Event{{ID: "reminder_9", Type: TypeReminder, Date: d}}},
		&fakeSource{name: "a", kind: TypeJournal, events: []Event{{ID: "journal_1", Type: TypeJournal, Date: d}}},
	}, time.Second, logx.Nop())

	got := agg.Events(context.Background(), Filter{})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "journal_1" || got[1].ID != "reminder_9" {
		t.Fatalf("tie-break order = [%s %s], want id-ascending", got[0].ID, got[1].ID)
	}
}

func TestSourceFailureIsIsolated(t *testing.T) {
	t.Parallel()
	agg := NewAggregator([]Source{
		&fakeSource{name: "journal", kind: TypeJournal, events: []Event{
			{ID: "journal_1", Type: TypeJournal, Date: day(2025, time.February, 1)},
			{ID: "journal_2", Type: TypeJournal, Date: day(2025, time.February, 2)},
		}},
		&fakeSource{name: "meetings", kind: TypeMeeting, expensive: true, err: errors.New("backend down")},
	}, time.Second, logx.Nop())

	got := agg.Events(context.Background(), Filter{Types: []Type{TypeMeeting, TypeJournal}})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 journal events despite meeting failure", len(got))
	}
	for _, e := range got {
		if e.Type == TypeMeeting {
			t.Fatalf("unexpected meeting event %s", e.ID)
		}
	}
}

func TestSourcePanicIsIsolated(t *testing.T) {
	t.Parallel()
	agg := NewAggregator([]Source{
		&fakeSource{name: "journal", kind: TypeJournal, events: []Event{
			{ID: "journal_1", Type: TypeJournal, Date: day(2025, time.February, 1)},
		}},
		&fakeSource{name: "reminders", kind: TypeReminder, panics: true},
	}, time.Second, logx.Nop())

	got := agg.Events(context.Background(), Filter{})
	if len(got) != 1 || got[0].ID != "journal_1" {
		t.Fatalf("got %v, want only journal_1", got)
	}
}

func TestExpensiveSourceGating(t *testing.T) {
	t.Parallel()
	meetings := &fakeSource{name: "meetings", kind: TypeMeeting, expensive: true, events: []Event{
		{ID: "meeting_1", Type: TypeMeeting, Date: day(2025, time.April, 1)},
	}}
	journal := &fakeSource{name: "journal", kind: TypeJournal}
	agg := NewAggregator([]Source{journal, meetings}, time.Second, logx.Nop())

	// No explicit type set: the expensive source is skipped.
	agg.Events(context.Background(), Filter{})
	if n := meetings.calls.Load(); n != 0 {
		t.Fatalf("meeting source called %d times without explicit request", n)
	}

	// Explicit request invokes it.
	got := agg.Events(context.Background(), Filter{Types: []Type{TypeMeeting}})
	if n := meetings.calls.Load(); n != 1 {
		t.Fatalf("meeting source called %d times, want 1", n)
	}
	if len(got) != 1 || got[0].ID != "meeting_1" {
		t.Fatalf("got %v, want meeting_1", got)
	}
	// The journal source is excluded by the type filter entirely.
	if n := journal.calls.Load(); n != 1 {
		t.Fatalf("journal source called %d times, want 1 (first query only)", n)
	}
}

func TestFilterComposition(t *testing.T) {
	t.Parallel()
	agg := NewAggregator([]Source{
		&fakeSource{name: "reminders", kind: TypeReminder, events: []Event{
			{ID: "reminder_1", Type: TypeReminder, Date: day(2025, time.May, 1), Priority: PriorityHigh, Status: StatusPending},
			{ID: "reminder_2", Type: TypeReminder, Date: day(2025, time.May, 2), Priority: PriorityLow, Status: StatusPending},
			{ID: "reminder_3", Type: TypeReminder, Date: day(2025, time.May, 3), Priority: PriorityUrgent, Status: StatusCompleted},
			{ID: "reminder_4", Type: TypeReminder, Date: day(2025, time.May, 4), Priority: PriorityUrgent, Status: StatusPending},
		}},
	}, time.Second, logx.Nop())

	got := agg.Events(context.Background(), Filter{
		Priorities:       []Priority{PriorityHigh, PriorityUrgent},
		ExcludeCompleted: true,
	})
	for _, e := range got {
		if e.Priority != PriorityHigh && e.Priority != PriorityUrgent {
			t.Fatalf("event %s has priority %s outside the requested set", e.ID, e.Priority)
		}
		if e.Status == StatusCompleted {
			t.Fatalf("event %s is completed but ExcludeCompleted was set", e.ID)
		}
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (reminder_4, reminder_1)", len(got))
	}
}

func TestEventsInRange(t *testing.T) {
	t.Parallel()
	agg := NewAggregator([]Source{
		&fakeSource{name: "journal", kind: TypeJournal, events: []Event{
			{ID: "journal_1", Type: TypeJournal, Date: day(2025, time.June, 1)},
			{ID: "journal_2", Type: TypeJournal, Date: day(2025, time.June, 15)},
			{ID: "journal_3", Type: TypeJournal, Date: day(2025, time.July, 1)},
		}},
	}, time.Second, logx.Nop())

	got := agg.EventsInRange(context.Background(),
		day(2025, time.June, 1), day(2025, time.June, 30), Filter{})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "journal_2" || got[1].ID != "journal_1" {
		t.Fatalf("order = [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestSlowSourceTimesOut(t *testing.T) {
	t.Parallel()
	slow := &slowSource{delay: 500 * time.Millisecond}
	agg := NewAggregator([]Source{
		&fakeSource{name: "journal", kind: TypeJournal, events: []Event{
			{ID: "journal_1", Type: TypeJournal, Date: day(2025, time.June, 1)},
		}},
		slow,
	}, 50*time.Millisecond, logx.Nop())

	start := time.Now()
	got := agg.Events(context.Background(), Filter{})
	if len(got) != 1 || got[0].ID != "journal_1" {
		t.Fatalf("got %v, want only journal_1", got)
	}
	if took := time.Since(start); took > 400*time.Millisecond {
		t.Fatalf("aggregation took %v; slow source was not bounded by the timeout", took)
	}
}

type slowSource struct {
	delay time.Duration
}

func (s *slowSource) Name() string    { return "slow" }
func (s *slowSource) Kind() Type      { return TypeReminder }
func (s *slowSource) Expensive() bool { return false }

func (s *slowSource) Events(ctx context.Context, f Filter) ([]Event, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
		return []Event{{ID: "slow_1", Type: TypeReminder, Date: day(2025, time.June, 2)}}, nil
	}
}
