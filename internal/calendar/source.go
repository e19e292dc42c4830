package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"opsdash/internal/storage"
)

// ErrSourceBusy is returned by rate-limited sources when a fetch would
// exceed their pacing budget. The aggregator treats it like any other
// source failure: log and contribute nothing.
var ErrSourceBusy = errors.New("calendar: source rate limit exceeded")

// Source translates one backing dataset into canonical events.
//
// Contract: Events is read-only and side-effect-free from the aggregator's
// point of view. Implementations should return an error rather than panic;
// the aggregator recovers panics anyway and converts both into an empty
// contribution.
type Source interface {
	Name() string
	Kind() Type

	// Expensive sources are consulted only when their type is explicitly
	// requested by the filter.
	Expensive() bool

	Events(ctx context.Context, f Filter) ([]Event, error)
}

// FetchFunc is the shape of the external collaborator fetchers
// (journal entries, intelligence entries, reminders, meetings).
type FetchFunc func(ctx context.Context, f Filter) ([]Event, error)

type funcSource struct {
	name      string
	kind      Type
	expensive bool
	fetch     FetchFunc
	limiter   *rate.Limiter
}

func (s *funcSource) Name() string    { return s.name }
func (s *funcSource) Kind() Type      { return s.kind }
func (s *funcSource) Expensive() bool { return s.expensive }

func (s *funcSource) Events(ctx context.Context, f Filter) ([]Event, error) {
	if s.fetch == nil {
		return nil, nil
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return nil, ErrSourceBusy
	}
	return s.fetch(ctx, f)
}

// NewJournalSource adapts the external journal-entry fetcher.
func NewJournalSource(fetch FetchFunc) Source {
	return &funcSource{name: "journal", kind: TypeJournal, fetch: fetch}
}

// NewIntelligenceSource adapts the external intelligence-report fetcher.
func NewIntelligenceSource(fetch FetchFunc) Source {
	return &funcSource{name: "intelligence", kind: TypeIntelligence, fetch: fetch}
}

// NewReminderSource adapts the external reminder fetcher.
func NewReminderSource(fetch FetchFunc) Source {
	return &funcSource{name: "reminders", kind: TypeReminder, fetch: fetch}
}

// NewMeetingSource adapts the external meeting fetcher. Meetings are the
// heavy fetch: the source is marked expensive so the aggregator skips it
// unless meetings were explicitly requested, and ratePerMin (when > 0)
// additionally paces how often the backing service may be hit.
func NewMeetingSource(fetch FetchFunc, ratePerMin int) Source {
	s := &funcSource{name: "meetings", kind: TypeMeeting, expensive: true, fetch: fetch}
	if ratePerMin > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(ratePerMin)/60.0), ratePerMin)
	}
	return s
}

// ---- Self-review periods (own table) ----

type reviewSource struct {
	store storage.Store
}

// NewReviewPeriodSource projects self_review_periods rows as events.
func NewReviewPeriodSource(store storage.Store) Source {
	return &reviewSource{store: store}
}

func (s *reviewSource) Name() string    { return "self_review" }
func (s *reviewSource) Kind() Type      { return TypeSelfReview }
func (s *reviewSource) Expensive() bool { return false }

func (s *reviewSource) Events(ctx context.Context, f Filter) ([]Event, error) {
	// Default to a generous window when the filter leaves the range open.
	start := f.Start
	end := f.End
	if start.IsZero() {
		start = time.Now().AddDate(-1, 0, 0)
	}
	if end.IsZero() {
		end = time.Now().AddDate(1, 0, 0)
	}
	periods, err := s.store.ReviewPeriodsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("review source: %w", err)
	}

	out := make([]Event, 0, len(periods))
	for _, p := range periods {
		out = append(out, Event{
			ID:       "self_review_" + p.ID,
			Title:    p.Title,
			Date:     p.StartDate,
			Type:     TypeSelfReview,
			Category: string(p.Type),
			Priority: PriorityMedium,
			Status:   reviewStatus(p.Status),
			ContextSummary: fmt.Sprintf("Review period %s - %s",
				p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02")),
		})
	}
	return out, nil
}

func reviewStatus(st storage.ReviewStatus) Status {
	switch st {
	case storage.ReviewDone:
		return StatusCompleted
	case storage.ReviewInProgress:
		return StatusInProgress
	default:
		return StatusPending
	}
}
