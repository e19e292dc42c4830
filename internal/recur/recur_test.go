package recur

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestBiweeklyOccurrences(t *testing.T) {
	t.Parallel()
	anchor := date(2025, time.August, 19)

	occs, err := Occurrences(anchor, Biweekly(), 12)
	if err != nil {
		t.Fatalf("Occurrences error: %v", err)
	}
	if len(occs) != 12 {
		t.Fatalf("len = %d, want 12", len(occs))
	}
	if !occs[0].Equal(anchor) {
		t.Fatalf("first = %v, want anchor %v", occs[0], anchor)
	}
	for i := 1; i < len(occs); i++ {
		gap := occs[i].Sub(occs[i-1])
		if gap != 14*24*time.Hour {
			t.Fatalf("gap between %v and %v = %v, want 336h", occs[i-1], occs[i], gap)
		}
	}
}

func TestWeeklyOccurrencesLandOnWeekday(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		anchor  time.Time
		weekday time.Weekday
		first   time.Time
	}{
		{
			name:    "anchor before weekday in same week",
			anchor:  date(2025, time.August, 17), // Sunday
			weekday: time.Tuesday,
			first:   date(2025, time.August, 19),
		},
		{
			name:    "anchor on the weekday itself",
			anchor:  date(2025, time.August, 19), // Tuesday
			weekday: time.Tuesday,
			first:   date(2025, time.August, 19),
		},
		{
			name:    "anchor after weekday wraps to next week",
			anchor:  date(2025, time.August, 21), // Thursday
			weekday: time.Tuesday,
			first:   date(2025, time.August, 26),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			occs, err := Occurrences(tt.anchor, WeeklyOn(tt.weekday), 4)
			if err != nil {
				t.Fatalf("Occurrences error: %v", err)
			}
			if len(occs) != 4 {
				t.Fatalf("len = %d, want 4", len(occs))
			}
			if !occs[0].Equal(tt.first) {
				t.Fatalf("first = %v, want %v", occs[0], tt.first)
			}
			for i, occ := range occs {
				if occ.Weekday() != tt.weekday {
					t.Fatalf("occ[%d] = %v lands on %v, want %v", i, occ, occ.Weekday(), tt.weekday)
				}
				if i > 0 && occ.Sub(occs[i-1]) != 7*24*time.Hour {
					t.Fatalf("gap at %d = %v, want 168h", i, occ.Sub(occs[i-1]))
				}
			}
		})
	}
}

func TestOccurrencesStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	occs, err := Occurrences(date(2025, time.January, 3), Biweekly(), 26)
	if err != nil {
		t.Fatalf("Occurrences error: %v", err)
	}
	for i := 1; i < len(occs); i++ {
		if !occs[i].After(occs[i-1]) {
			t.Fatalf("not strictly increasing at %d: %v then %v", i, occs[i-1], occs[i])
		}
	}
}

func TestOccurrencesPure(t *testing.T) {
	t.Parallel()
	anchor := date(2025, time.August, 19)
	a, err := Occurrences(anchor, WeeklyOn(time.Friday), 8)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	b, err := Occurrences(anchor, WeeklyOn(time.Friday), 8)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			t.Fatalf("calls disagree at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestOccurrencesInvalidCount(t *testing.T) {
	t.Parallel()
	if _, err := Occurrences(date(2025, time.August, 19), Biweekly(), 0); err == nil {
		t.Fatal("expected error for count 0")
	}
}

func TestPeriodEnd(t *testing.T) {
	t.Parallel()
	start := date(2025, time.August, 19)
	end := PeriodEnd(start)
	if got := end.Sub(start); got != 13*24*time.Hour {
		t.Fatalf("period length = %v, want 312h", got)
	}
}

func TestCadenceTags(t *testing.T) {
	t.Parallel()
	if got := Biweekly().Tag(); got != "biweekly" {
		t.Fatalf("biweekly tag = %q", got)
	}
	if got := WeeklyOn(time.Tuesday).Tag(); got != "weekly_tue" {
		t.Fatalf("weekly tag = %q", got)
	}
}
