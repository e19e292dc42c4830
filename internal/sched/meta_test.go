package sched

import (
	"encoding/json"
	"testing"
	"time"

	"opsdash/internal/storage"
)

func TestTaskIDFormat(t *testing.T) {
	t.Parallel()
	occ := time.Date(2025, time.August, 19, 9, 0, 0, 0, time.UTC)
	if got := TaskID(storage.TaskSelfReview, occ); got != "self_review_2025-08-19" {
		t.Fatalf("TaskID = %q", got)
	}
	if got := TaskID(storage.TaskMaintenance, occ); got != "maintenance_2025-08-19" {
		t.Fatalf("TaskID = %q", got)
	}
	if got := PeriodID(occ); got != "review_2025-08-19" {
		t.Fatalf("PeriodID = %q", got)
	}
}

func TestReviewMetaRoundTrip(t *testing.T) {
	t.Parallel()
	in := ReviewMeta{
		PeriodStart: time.Date(2025, time.August, 19, 9, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2025, time.September, 1, 9, 0, 0, 0, time.UTC),
		PeriodType:  storage.ReviewBiweekly,
		Scope:       storage.ReviewScope{Journal: true, Registry: true},
	}
	raw, err := EncodeReviewMeta(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeReviewMeta(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.PeriodStart.Equal(in.PeriodStart) || !out.PeriodEnd.Equal(in.PeriodEnd) {
		t.Fatalf("window = [%v, %v]", out.PeriodStart, out.PeriodEnd)
	}
	if out.Scope != in.Scope {
		t.Fatalf("scope = %+v, want %+v", out.Scope, in.Scope)
	}
}

func TestDecodeReviewMetaRejectsInvalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "unknown field",
			raw:  `{"period_start":"2025-08-19T09:00:00Z","period_end":"2025-09-01T09:00:00Z","period_type":"biweekly","scope":{},"extra":true}`,
		},
		{
			name: "end before start",
			raw:  `{"period_start":"2025-09-01T09:00:00Z","period_end":"2025-08-19T09:00:00Z","period_type":"biweekly","scope":{}}`,
		},
		{
			name: "end equals start",
			raw:  `{"period_start":"2025-08-19T09:00:00Z","period_end":"2025-08-19T09:00:00Z","period_type":"biweekly","scope":{}}`,
		},
		{
			name: "not json",
			raw:  `cadence`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := DecodeReviewMeta(json.RawMessage(tt.raw)); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func TestDecodeMaintenanceMeta(t *testing.T) {
	t.Parallel()

	// Empty payload means "all kinds" and is not an error.
	m, err := DecodeMaintenanceMeta(nil)
	if err != nil {
		t.Fatalf("nil payload: %v", err)
	}
	if len(m.Kinds) != 0 {
		t.Fatalf("kinds = %v, want empty (caller applies the default)", m.Kinds)
	}

	m, err = DecodeMaintenanceMeta(json.RawMessage(`{"kinds":["ecosystem"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(m.Kinds) != 1 || m.Kinds[0] != "ecosystem" {
		t.Fatalf("kinds = %v", m.Kinds)
	}

	if _, err := DecodeMaintenanceMeta(json.RawMessage(`{"kind":"typo"}`)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}
