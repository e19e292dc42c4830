// Package storage persists the scheduler core's owned state:
//   - scheduled_tasks (recurring task occurrences, append-only audit trail)
//   - admin_notifications (task outcome messages, mutable is_read flag only)
//   - self_review_periods (review windows enriched with analysis results)
//
// Timestamps are stored as unix milliseconds so due-task comparisons are
// exact at millisecond precision.
package storage
