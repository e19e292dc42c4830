package config

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Calendar  CalendarConfig  `json:"calendar,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig locates the SQLite database that holds scheduled tasks,
// notifications and review periods.
//
// Example:
//
//	"storage": { "path": "./opsdash.db" }
type StorageConfig struct {
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// SchedulerConfig controls recurring-task setup and the tick trigger.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - tick_spec: "@every 1m"
//   - horizon: 12
//   - review_anchor: required for setup (ISO date, e.g. "2025-08-19")
//   - maintenance_weekdays: ["tuesday", "friday"]
//   - maintenance_hour: 9 (local to timezone)
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// TickSpec is a cron spec or @every interval passed to robfig/cron.
	TickSpec string `json:"tick_spec,omitempty"`

	// Trigger timezone (IANA name, e.g. "America/New_York").
	Timezone string `json:"timezone,omitempty"`

	// ReviewAnchor is the first day of the first self-review period (ISO date).
	ReviewAnchor string `json:"review_anchor,omitempty"`

	// MaintenanceWeekdays lists the weekly maintenance days by English name.
	MaintenanceWeekdays []string `json:"maintenance_weekdays,omitempty"`

	// MaintenanceHour is the local hour of day maintenance runs become due.
	MaintenanceHour int `json:"maintenance_hour,omitempty"`

	// Horizon is the number of future occurrences created per cadence at setup.
	Horizon int `json:"horizon,omitempty"`
}

// CalendarConfig tunes the aggregation fan-out.
type CalendarConfig struct {
	// SourceTimeout bounds each source fetch. Go duration string; default "5s".
	SourceTimeout string `json:"source_timeout,omitempty"`

	// MaintenanceWeeks is how far ahead the synthetic maintenance source
	// projects occurrences. Default 12.
	MaintenanceWeeks int `json:"maintenance_weeks,omitempty"`

	// MeetingRatePerMin caps how often the expensive meeting source may be
	// hit. 0 disables the limiter.
	MeetingRatePerMin int `json:"meeting_rate_per_min,omitempty"`
}
