// Package sched owns the recurring-task lifecycle: idempotent setup of
// future occurrences, due-task detection, per-task isolated execution, and
// outcome notifications.
//
// The design assumes a single active scheduler process. ProcessDue is
// re-entrant-safe and cheap to call from a periodic trigger; the Runner
// wraps it in a cron schedule for deployments that want an in-process
// timer.
package sched
