package calendar

import (
	"testing"
	"time"
)

func TestFilterMatches(t *testing.T) {
	t.Parallel()
	event := Event{
		ID:       "journal_1",
		Type:     TypeJournal,
		Category: "personal",
		Priority: PriorityHigh,
		Status:   StatusCompleted,
		Date:     day(2025, time.June, 10),
		Meta:     Metadata{Tags: []string{"health", "travel"}},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero filter matches everything", Filter{}, true},
		{"matching type", Filter{Types: []Type{TypeJournal}}, true},
		{"other type", Filter{Types: []Type{TypeReminder}}, false},
		{"matching category", Filter{Categories: []string{"personal"}}, true},
		{"other category", Filter{Categories: []string{"work"}}, false},
		{"matching priority", Filter{Priorities: []Priority{PriorityHigh, PriorityLow}}, true},
		{"other priority", Filter{Priorities: []Priority{PriorityUrgent}}, false},
		{"intersecting tags", Filter{Tags: []string{"travel", "finance"}}, true},
		{"disjoint tags", Filter{Tags: []string{"finance"}}, false},
		{"inside range", Filter{}.WithRange(day(2025, time.June, 1), day(2025, time.June, 30)), true},
		{"date on range start", Filter{}.WithRange(event.Date, day(2025, time.June, 30)), true},
		{"before range", Filter{}.WithRange(day(2025, time.June, 11), day(2025, time.June, 30)), false},
		{"after range", Filter{}.WithRange(day(2025, time.May, 1), day(2025, time.June, 9)), false},
		{"exclude completed", Filter{ExcludeCompleted: true}, false},
		{"all criteria together", Filter{
			Types:      []Type{TypeJournal},
			Categories: []string{"personal"},
			Priorities: []Priority{PriorityHigh},
			Tags:       []string{"health"},
		}, true},
		{"one criterion misses", Filter{
			Types:      []Type{TypeJournal},
			Categories: []string{"personal"},
			Priorities: []Priority{PriorityLow},
		}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Matches(event); got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWantsTypeVersusRequestsType(t *testing.T) {
	t.Parallel()
	empty := Filter{}
	if !empty.WantsType(TypeMeeting) {
		t.Fatal("empty filter must want every type")
	}
	if empty.RequestsType(TypeMeeting) {
		t.Fatal("empty filter must not count as an explicit request")
	}

	explicit := Filter{Types: []Type{TypeMeeting}}
	if !explicit.WantsType(TypeMeeting) || !explicit.RequestsType(TypeMeeting) {
		t.Fatal("explicit type must be both wanted and requested")
	}
	if explicit.WantsType(TypeJournal) {
		t.Fatal("unlisted type must not be wanted by a non-empty filter")
	}
}
