package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"opsdash/internal/insight"
	"opsdash/internal/notify"
	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

// SelfReviewExecutor creates the review period for a due self-review task
// and kicks off analysis generation in the background. The task's own
// success is about starting the review; the analysis is long-running and
// finishes on its own schedule.
type SelfReviewExecutor struct {
	store    storage.Store
	analyzer insight.ReviewAnalyzer
	log      logx.Logger

	wg sync.WaitGroup
}

func NewSelfReviewExecutor(store storage.Store, analyzer insight.ReviewAnalyzer, log logx.Logger) *SelfReviewExecutor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &SelfReviewExecutor{store: store, analyzer: analyzer, log: log}
}

func (e *SelfReviewExecutor) Type() storage.TaskType { return storage.TaskSelfReview }

func (e *SelfReviewExecutor) Execute(ctx context.Context, t storage.ScheduledTask) (*notify.Draft, error) {
	meta, err := DecodeReviewMeta(t.Meta)
	if err != nil {
		return nil, err
	}

	periodID := PeriodID(meta.PeriodStart)
	period := storage.SelfReviewPeriod{
		ID:        periodID,
		Title:     "Self-review " + meta.PeriodStart.Format("Jan 2") + " - " + meta.PeriodEnd.Format("Jan 2, 2006"),
		StartDate: meta.PeriodStart,
		EndDate:   meta.PeriodEnd,
		Type:      meta.PeriodType,
		Status:    storage.ReviewPending,
		Scope:     meta.Scope,
	}
	if err := e.store.InsertReviewPeriod(ctx, period); err != nil {
		// A retried task may have created the period on an earlier attempt;
		// resume instead of failing.
		if _, lookupErr := e.store.ReviewPeriodByID(ctx, periodID); lookupErr != nil {
			if errors.Is(lookupErr, storage.ErrNotFound) {
				return nil, fmt.Errorf("sched: create review period: %w", err)
			}
			return nil, fmt.Errorf("sched: create review period: %w (lookup: %v)", err, lookupErr)
		}
		e.log.Debug("review period already exists; resuming", logx.String("period_id", periodID))
	}

	e.launchAnalysis(periodID)

	return &notify.Draft{
		Title:       "Self-review started",
		Message:     "Review period " + period.Title + " was created; analysis is generating in the background.",
		Type:        storage.NotifySuccess,
		Priority:    storage.PriorityMedium,
		ActionURL:   "/reviews/" + periodID,
		ActionLabel: "Open review",
	}, nil
}

// launchAnalysis is fire-and-forget relative to the tick, but the handle is
// tracked: Wait() joins outstanding runs and eventual failures are logged
// against the owning period id rather than swallowed.
func (e *SelfReviewExecutor) launchAnalysis(periodID string) {
	if e.analyzer == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("panic in review analysis",
					logx.String("period_id", periodID),
					logx.Any("panic", r),
					logx.Stack(string(debug.Stack())))
			}
		}()

		ctx := context.Background()
		if err := e.store.SetReviewStatus(ctx, periodID, storage.ReviewInProgress); err != nil {
			e.log.Warn("could not mark review in progress",
				logx.String("period_id", periodID), logx.Err(err))
		}
		if err := e.analyzer.GenerateReviewAnalysis(ctx, periodID); err != nil {
			e.log.Error("review analysis failed",
				logx.String("period_id", periodID), logx.Err(err))
		}
	}()
}

// Wait blocks until all launched analysis runs have finished. Used on
// shutdown and by tests.
func (e *SelfReviewExecutor) Wait() { e.wg.Wait() }
