// Package calendar merges heterogeneous event sources into one timeline.
//
// Each Source translates one backing dataset into canonical Events. Sources
// are independently failing: a broken source contributes an empty slice and
// a log line, never an error to the caller. The Aggregator fans out over all
// eligible sources concurrently with a bounded per-source timeout, applies
// the composite filter in one pass, and sorts descending by date.
package calendar
