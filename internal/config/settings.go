package config

import (
	"fmt"
	"strings"
	"time"
)

// Typed accessors for the scheduler/calendar sections. Raw config keeps
// strings so the strict JSON decoder stays format-agnostic; callers get
// parsed values with defaults applied here.

const (
	DefaultTickSpec         = "@every 1m"
	DefaultHorizon          = 12
	DefaultMaintenanceHour  = 9
	DefaultSourceTimeout    = 5 * time.Second
	DefaultMaintenanceWeeks = 12
)

func (c SchedulerConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}

// Anchor parses review_anchor as an ISO date in the scheduler timezone.
func (c SchedulerConfig) Anchor(loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(c.ReviewAnchor)
	if raw == "" {
		return time.Time{}, fmt.Errorf("scheduler.review_anchor is required")
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("scheduler.review_anchor: invalid date %q: %w", raw, err)
	}
	return t, nil
}

func (c SchedulerConfig) Weekdays() ([]time.Weekday, error) {
	if len(c.MaintenanceWeekdays) == 0 {
		return []time.Weekday{time.Tuesday, time.Friday}, nil
	}
	out := make([]time.Weekday, 0, len(c.MaintenanceWeekdays))
	for _, raw := range c.MaintenanceWeekdays {
		wd, err := ParseWeekday(raw)
		if err != nil {
			return nil, fmt.Errorf("scheduler.maintenance_weekdays: %w", err)
		}
		out = append(out, wd)
	}
	return out, nil
}

func (c SchedulerConfig) Tick() string {
	if strings.TrimSpace(c.TickSpec) == "" {
		return DefaultTickSpec
	}
	return strings.TrimSpace(c.TickSpec)
}

func (c SchedulerConfig) HorizonCount() int {
	if c.Horizon <= 0 {
		return DefaultHorizon
	}
	return c.Horizon
}

func (c SchedulerConfig) Hour() int {
	if c.MaintenanceHour <= 0 || c.MaintenanceHour > 23 {
		return DefaultMaintenanceHour
	}
	return c.MaintenanceHour
}

func (c CalendarConfig) Timeout() (time.Duration, error) {
	return ParseDurationOrDefault("calendar.source_timeout", c.SourceTimeout, DefaultSourceTimeout)
}

func (c CalendarConfig) ProjectionWeeks() int {
	if c.MaintenanceWeeks <= 0 {
		return DefaultMaintenanceWeeks
	}
	return c.MaintenanceWeeks
}

func ParseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun":
		return time.Sunday, nil
	case "monday", "mon":
		return time.Monday, nil
	case "tuesday", "tue":
		return time.Tuesday, nil
	case "wednesday", "wed":
		return time.Wednesday, nil
	case "thursday", "thu":
		return time.Thursday, nil
	case "friday", "fri":
		return time.Friday, nil
	case "saturday", "sat":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
