package calendar

import "time"

// Type classifies a calendar event by its originating dataset.
type Type string

const (
	TypeJournal      Type = "journal_entry"
	TypeIntelligence Type = "intelligence_entry"
	TypeReminder     Type = "reminder"
	TypeSelfReview   Type = "self_review"
	TypeMeeting      Type = "meeting"
	TypeMaintenance  Type = "maintenance"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusCancelled  Status = "cancelled"
)

// Metadata is the structured bag attached to an event.
type Metadata struct {
	Tags       []string `json:"tags,omitempty"`
	Impact     string   `json:"impact,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
	Related    []string `json:"related,omitempty"`
}

// Event is a read-only projection built fresh on every aggregation request.
// It is never persisted and never mutated after construction.
//
// ID must be globally unique across sources; sources namespace their ids
// (e.g. "journal_42", "maintenance_2025-09-02").
type Event struct {
	ID       string
	Title    string
	Date     time.Time
	Type     Type
	Category string   // optional free text
	Priority Priority // optional
	Status   Status   // optional
	Meta     Metadata

	// ContextSummary is a short derived description; DetailPath optionally
	// points at externally stored full context.
	ContextSummary string
	DetailPath     string
}
