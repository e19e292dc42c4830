package storage

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a row id does not exist (or a guarded
	// update matched no row, e.g. completing an already-completed task).
	ErrNotFound = errors.New("storage: not found")
)

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// ---- Scheduled tasks ----

type TaskType string

const (
	TaskSelfReview  TaskType = "self_review"
	TaskMaintenance TaskType = "maintenance"
)

type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskPaused    TaskStatus = "paused"
)

// ScheduledTask is one persisted future occurrence of a recurring job.
//
// ID is the idempotency key (derived from type + occurrence date), so
// re-running setup never duplicates an occurrence. Rows are never deleted;
// completed tasks remain as an audit trail.
type ScheduledTask struct {
	ID       string
	Name     string
	Type     TaskType
	Schedule string
	NextRun  time.Time
	LastRun  time.Time // zero = never ran
	Status   TaskStatus
	Meta     json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ---- Notifications ----

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// AdminNotification is immutable after insert except for IsRead.
type AdminNotification struct {
	ID          string
	Title       string
	Message     string
	Type        NotificationType
	Priority    Priority
	IsRead      bool
	ActionURL   string
	ActionLabel string
	CreatedAt   time.Time
}

// ---- Self-review periods ----

type ReviewPeriodType string

const (
	ReviewWeekly    ReviewPeriodType = "weekly"
	ReviewBiweekly  ReviewPeriodType = "biweekly"
	ReviewMonthly   ReviewPeriodType = "monthly"
	ReviewQuarterly ReviewPeriodType = "quarterly"
	ReviewAnnual    ReviewPeriodType = "annual"
	ReviewMilestone ReviewPeriodType = "milestone"
)

type ReviewStatus string

const (
	ReviewPending    ReviewStatus = "pending"
	ReviewInProgress ReviewStatus = "in_progress"
	ReviewDone       ReviewStatus = "completed"
)

// ReviewScope selects which external data sources a review analyzes.
type ReviewScope struct {
	Journal      bool `json:"journal"`
	Intelligence bool `json:"intelligence"`
	Reminders    bool `json:"reminders"`
	Registry     bool `json:"registry"`
}

// SelfReviewPeriod is a bounded window over which activity is analyzed.
// AnalysisResults is written once by the review pipeline; EndDate must be
// after StartDate (enforced on insert).
type SelfReviewPeriod struct {
	ID        string
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Type      ReviewPeriodType
	Status    ReviewStatus
	Scope     ReviewScope
	Analysis  json.RawMessage // nil until the analysis pipeline writes back

	CreatedAt time.Time
	UpdatedAt time.Time
}
