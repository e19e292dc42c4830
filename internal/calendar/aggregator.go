package calendar

import (
	"context"
	"runtime/debug"
	"sort"
	"time"

	logx "opsdash/pkg/logx"
)

// Aggregator owns the fixed source list and the merge policy.
//
// Build it once at process start and share it; it has no mutable state
// beyond what the sources themselves carry.
type Aggregator struct {
	sources []Source
	timeout time.Duration
	log     logx.Logger
}

func NewAggregator(sources []Source, timeout time.Duration, log logx.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Aggregator{sources: sources, timeout: timeout, log: log}
}

// Events fans out over eligible sources, merges, filters, and sorts
// descending by date. Source failures are isolated: a failing source
// contributes nothing and the rest of the timeline still returns.
func (a *Aggregator) Events(ctx context.Context, f Filter) []Event {
	eligible := make([]Source, 0, len(a.sources))
	for _, src := range a.sources {
		if !f.WantsType(src.Kind()) {
			continue
		}
		if src.Expensive() && !f.RequestsType(src.Kind()) {
			continue
		}
		eligible = append(eligible, src)
	}

	merged := a.collect(ctx, eligible, f)

	out := merged[:0]
	for _, e := range merged {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

// EventsInRange is Events with a date-range filter injected.
func (a *Aggregator) EventsInRange(ctx context.Context, start, end time.Time, f Filter) []Event {
	return a.Events(ctx, f.WithRange(start, end))
}

// collect runs the per-source fetches concurrently. Each source writes into
// its own result slot, bounded by the per-source timeout.
func (a *Aggregator) collect(ctx context.Context, sources []Source, f Filter) []Event {
	results := make([][]Event, len(sources))
	done := make(chan int, len(sources))

	for i, src := range sources {
		go func(i int, src Source) {
			defer func() {
				if r := recover(); r != nil {
					a.log.Error("source panicked",
						logx.String("source", src.Name()),
						logx.Any("panic", r),
						logx.Stack(string(debug.Stack())))
				}
				done <- i
			}()

			sctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			evs, err := src.Events(sctx, f)
			if err != nil {
				// Partial-failure isolation: one broken source must not
				// blank out the whole calendar.
				a.log.Warn("source fetch failed; contributing no events",
					logx.String("source", src.Name()), logx.Err(err))
				return
			}
			results[i] = evs
		}(i, src)
	}
	for range sources {
		<-done
	}

	var merged []Event
	for _, evs := range results {
		merged = append(merged, evs...)
	}
	return merged
}

// sortEvents orders descending by date. Ties are broken by id so the order
// is a total one rather than an accident of source registration.
func sortEvents(evs []Event) {
	sort.SliceStable(evs, func(i, j int) bool {
		if !evs[i].Date.Equal(evs[j].Date) {
			return evs[i].Date.After(evs[j].Date)
		}
		return evs[i].ID < evs[j].ID
	})
}
