package sched

import (
	"context"
	"fmt"
	"time"

	"opsdash/internal/insight"
	"opsdash/internal/recur"
	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

// SetupConfig describes the cadence definitions expanded at setup time.
type SetupConfig struct {
	// ReviewAnchor is the first day of the first biweekly review period.
	ReviewAnchor time.Time

	// MaintenanceAnchor is the reference day for weekly maintenance;
	// occurrences land on Weekdays at the anchor's time of day.
	MaintenanceAnchor time.Time
	Weekdays          []time.Weekday

	// Horizon is the number of occurrences generated per cadence.
	Horizon int

	// Kinds selects the maintenance analyses; defaults to insight.AllKinds.
	Kinds []string

	// Now, when set, discards occurrences already in the past. Zero keeps
	// every generated occurrence (deterministic, useful in tests).
	Now time.Time
}

// SetupReport counts the effect of one setup pass.
type SetupReport struct {
	Created int
	Skipped int // already present (idempotent re-run) or in the past
}

// Setup expands the cadences into ScheduledTask rows. It is idempotent:
// occurrence ids are deterministic and existing ids are left untouched, so
// re-running with the same anchors is a no-op.
func (s *Service) Setup(ctx context.Context, cfg SetupConfig) (SetupReport, error) {
	if cfg.Horizon <= 0 {
		cfg.Horizon = 12
	}
	if len(cfg.Weekdays) == 0 {
		cfg.Weekdays = []time.Weekday{time.Tuesday, time.Friday}
	}
	if len(cfg.Kinds) == 0 {
		cfg.Kinds = insight.AllKinds()
	}
	if cfg.MaintenanceAnchor.IsZero() {
		cfg.MaintenanceAnchor = cfg.ReviewAnchor
	}

	var rep SetupReport

	if !cfg.ReviewAnchor.IsZero() {
		if err := s.setupReviews(ctx, cfg, &rep); err != nil {
			return rep, err
		}
	}
	if err := s.setupMaintenance(ctx, cfg, &rep); err != nil {
		return rep, err
	}

	s.log.Info("scheduler setup complete",
		logx.Int("created", rep.Created),
		logx.Int("skipped", rep.Skipped))
	return rep, nil
}

func (s *Service) setupReviews(ctx context.Context, cfg SetupConfig, rep *SetupReport) error {
	occs, err := recur.Occurrences(cfg.ReviewAnchor, recur.Biweekly(), cfg.Horizon)
	if err != nil {
		return fmt.Errorf("sched: review occurrences: %w", err)
	}
	for _, occ := range occs {
		if !cfg.Now.IsZero() && occ.Before(cfg.Now) {
			rep.Skipped++
			continue
		}
		meta, err := EncodeReviewMeta(ReviewMeta{
			PeriodStart: occ,
			PeriodEnd:   recur.PeriodEnd(occ),
			PeriodType:  storage.ReviewBiweekly,
			Scope: storage.ReviewScope{
				Journal:      true,
				Intelligence: true,
				Reminders:    true,
				Registry:     true,
			},
		})
		if err != nil {
			return err
		}
		inserted, err := s.store.InsertTaskIfAbsent(ctx, storage.ScheduledTask{
			ID:       TaskID(storage.TaskSelfReview, occ),
			Name:     "Biweekly self-review (" + occ.Format("Jan 2, 2006") + ")",
			Type:     storage.TaskSelfReview,
			Schedule: recur.Biweekly().Tag(),
			NextRun:  occ,
			Status:   storage.TaskActive,
			Meta:     meta,
		})
		if err != nil {
			return fmt.Errorf("sched: setup review task: %w", err)
		}
		bump(rep, inserted)
	}
	return nil
}

func (s *Service) setupMaintenance(ctx context.Context, cfg SetupConfig, rep *SetupReport) error {
	meta, err := EncodeMaintenanceMeta(MaintenanceMeta{Kinds: cfg.Kinds})
	if err != nil {
		return err
	}
	// Each weekday is its own independent weekly sequence.
	for _, wd := range cfg.Weekdays {
		cadence := recur.WeeklyOn(wd)
		occs, err := recur.Occurrences(cfg.MaintenanceAnchor, cadence, cfg.Horizon)
		if err != nil {
			return fmt.Errorf("sched: maintenance occurrences: %w", err)
		}
		for _, occ := range occs {
			if !cfg.Now.IsZero() && occ.Before(cfg.Now) {
				rep.Skipped++
				continue
			}
			inserted, err := s.store.InsertTaskIfAbsent(ctx, storage.ScheduledTask{
				ID:       TaskID(storage.TaskMaintenance, occ),
				Name:     "Ecosystem maintenance (" + occ.Weekday().String() + ")",
				Type:     storage.TaskMaintenance,
				Schedule: cadence.Tag(),
				NextRun:  occ,
				Status:   storage.TaskActive,
				Meta:     meta,
			})
			if err != nil {
				return fmt.Errorf("sched: setup maintenance task: %w", err)
			}
			bump(rep, inserted)
		}
	}
	return nil
}

func bump(rep *SetupReport, inserted bool) {
	if inserted {
		rep.Created++
	} else {
		rep.Skipped++
	}
}
