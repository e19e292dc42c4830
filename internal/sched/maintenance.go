package sched

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"opsdash/internal/insight"
	"opsdash/internal/notify"
	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

// MaintenanceExecutor fans the selected analysis generators out in
// parallel and reports an aggregate outcome. Partial failure is tolerated:
// the task completes with a warning notification carrying the success
// ratio. Only a total failure keeps the task active for retry.
type MaintenanceExecutor struct {
	gens insight.Generators
	log  logx.Logger
}

func NewMaintenanceExecutor(gens insight.Generators, log logx.Logger) *MaintenanceExecutor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &MaintenanceExecutor{gens: gens, log: log}
}

func (e *MaintenanceExecutor) Type() storage.TaskType { return storage.TaskMaintenance }

func (e *MaintenanceExecutor) Execute(ctx context.Context, t storage.ScheduledTask) (*notify.Draft, error) {
	meta, err := DecodeMaintenanceMeta(t.Meta)
	if err != nil {
		return nil, err
	}
	kinds := meta.Kinds
	if len(kinds) == 0 {
		kinds = insight.AllKinds()
	}
	if e.gens == nil {
		return nil, fmt.Errorf("sched: no analysis generators configured")
	}

	// Independent calls, each writing to its own result slot.
	errs := make([]error, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
					e.log.Error("panic in analysis generator",
						logx.String("kind", kind),
						logx.Any("panic", r),
						logx.Stack(string(debug.Stack())))
				}
			}()
			errs[i] = e.runKind(ctx, kind)
		}(i, kind)
	}
	wg.Wait()

	ok := 0
	for i, kind := range kinds {
		if errs[i] == nil {
			ok++
			continue
		}
		e.log.Warn("analysis generator failed",
			logx.String("kind", kind), logx.Err(errs[i]))
	}

	switch {
	case ok == len(kinds):
		return &notify.Draft{
			Title:    "Maintenance analysis completed",
			Message:  fmt.Sprintf("All %d analysis runs succeeded.", len(kinds)),
			Type:     storage.NotifySuccess,
			Priority: storage.PriorityLow,
		}, nil
	case ok > 0:
		return &notify.Draft{
			Title:    "Maintenance analysis partially completed",
			Message:  fmt.Sprintf("%d of %d analysis runs succeeded; see logs for the failures.", ok, len(kinds)),
			Type:     storage.NotifyWarning,
			Priority: storage.PriorityMedium,
		}, nil
	default:
		return nil, fmt.Errorf("sched: all %d analysis runs failed", len(kinds))
	}
}

func (e *MaintenanceExecutor) runKind(ctx context.Context, kind string) error {
	switch kind {
	case insight.KindEcosystem:
		return e.gens.EcosystemInsight(ctx)
	case insight.KindDreamState:
		return e.gens.DreamStatePredictions(ctx)
	case insight.KindCreative:
		return e.gens.CreativeIntelligence(ctx)
	default:
		return fmt.Errorf("unknown analysis kind %q", kind)
	}
}
