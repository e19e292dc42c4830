package sched

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"opsdash/internal/storage"
)

// Task metadata is a tagged union keyed by the task type. Each executor
// decodes its own payload strictly; an undecodable payload is an executor
// failure, not a silent default.

// ReviewMeta is the payload of self-review tasks.
type ReviewMeta struct {
	PeriodStart time.Time                `json:"period_start"`
	PeriodEnd   time.Time                `json:"period_end"`
	PeriodType  storage.ReviewPeriodType `json:"period_type"`
	Scope       storage.ReviewScope      `json:"scope"`
}

// MaintenanceMeta is the payload of maintenance tasks.
type MaintenanceMeta struct {
	// Kinds selects which analysis generators run (see insight.AllKinds).
	Kinds []string `json:"kinds"`
}

func EncodeReviewMeta(m ReviewMeta) (json.RawMessage, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("sched: encode review meta: %w", err)
	}
	return b, nil
}

func DecodeReviewMeta(raw json.RawMessage) (ReviewMeta, error) {
	var m ReviewMeta
	if err := strictDecode(raw, &m); err != nil {
		return ReviewMeta{}, fmt.Errorf("sched: decode review meta: %w", err)
	}
	if !m.PeriodEnd.After(m.PeriodStart) {
		return ReviewMeta{}, fmt.Errorf("sched: review meta: period end %s not after start %s",
			m.PeriodEnd.Format(time.RFC3339), m.PeriodStart.Format(time.RFC3339))
	}
	return m, nil
}

func EncodeMaintenanceMeta(m MaintenanceMeta) (json.RawMessage, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("sched: encode maintenance meta: %w", err)
	}
	return b, nil
}

func DecodeMaintenanceMeta(raw json.RawMessage) (MaintenanceMeta, error) {
	var m MaintenanceMeta
	if len(raw) == 0 {
		return m, nil // empty payload means "all kinds"
	}
	if err := strictDecode(raw, &m); err != nil {
		return MaintenanceMeta{}, fmt.Errorf("sched: decode maintenance meta: %w", err)
	}
	return m, nil
}

func strictDecode(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// TaskID derives the idempotency key for one occurrence: <type>_<iso-date>.
// Re-running setup with the same anchor regenerates the same ids, which the
// insert-if-absent path turns into no-ops.
func TaskID(typ storage.TaskType, occ time.Time) string {
	return string(typ) + "_" + occ.Format("2006-01-02")
}

// PeriodID derives the review period id created by a self-review task.
// Deterministic so a retried executor resumes instead of duplicating.
func PeriodID(start time.Time) string {
	return "review_" + start.Format("2006-01-02")
}
