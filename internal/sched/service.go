package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"opsdash/internal/eventbus"
	"opsdash/internal/notify"
	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

// ErrUnknownTaskType is returned when a due task's type has no registered
// executor. The task stays active so a later deployment that registers the
// executor picks it up.
var ErrUnknownTaskType = errors.New("sched: unknown task type")

// Executor performs the side-effecting work for one due task type.
//
// The returned draft, when non-nil, replaces the scheduler's generic
// success notification (the maintenance executor uses this to report its
// success ratio). On error the scheduler emits its own failure
// notification and leaves the task active for the next tick.
type Executor interface {
	Type() storage.TaskType
	Execute(ctx context.Context, t storage.ScheduledTask) (*notify.Draft, error)
}

// Service dispatches due tasks to type-keyed executors.
type Service struct {
	store   storage.Store
	emitter *notify.Emitter
	bus     eventbus.Bus
	log     logx.Logger
	execs   map[storage.TaskType]Executor
}

func New(store storage.Store, emitter *notify.Emitter, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		store:   store,
		emitter: emitter,
		bus:     bus,
		log:     log,
		execs:   map[storage.TaskType]Executor{},
	}
}

// Register installs executors, keyed by their task type. Later
// registrations for the same type win.
func (s *Service) Register(execs ...Executor) {
	for _, e := range execs {
		s.execs[e.Type()] = e
	}
}

// TickReport summarizes one ProcessDue pass.
type TickReport struct {
	Due       int
	Completed int
	Failed    int
}

// ProcessDue runs one tick: find active tasks whose nextRun is at or before
// now, execute each exactly once, record outcomes. A task's failure is
// contained to that task; remaining due tasks still run. Failed tasks keep
// status=active and an unchanged nextRun, so the next tick retries them.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) (TickReport, error) {
	start := time.Now()
	due, err := s.store.DueTasks(ctx, now)
	if err != nil {
		return TickReport{}, fmt.Errorf("sched: query due tasks: %w", err)
	}

	rep := TickReport{Due: len(due)}
	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicTickStarted, Data: eventbus.TickEvent{Due: len(due)}})
	}

	for _, t := range due {
		if err := s.runOne(ctx, t, now); err != nil {
			rep.Failed++
		} else {
			rep.Completed++
		}
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicTickFinished, Data: eventbus.TickEvent{
			Due:       rep.Due,
			Completed: rep.Completed,
			Failed:    rep.Failed,
			Duration:  time.Since(start),
		}})
	}
	if rep.Due > 0 {
		s.log.Info("tick processed",
			logx.Int("due", rep.Due),
			logx.Int("completed", rep.Completed),
			logx.Int("failed", rep.Failed),
			logx.Duration("took", time.Since(start)))
	}
	return rep, nil
}

func (s *Service) runOne(ctx context.Context, t storage.ScheduledTask, now time.Time) error {
	started := time.Now()
	draft, err := s.execute(ctx, t)
	dur := time.Since(started)

	if err != nil {
		s.log.Warn("task failed; will retry on next tick",
			logx.String("task_id", t.ID),
			logx.String("type", string(t.Type)),
			logx.Err(err),
			logx.Duration("took", dur))
		s.publishTask(eventbus.TopicTaskFailed, t, started, dur, err)
		s.notifyOutcome(ctx, &notify.Draft{
			Title:    "Task failed: " + t.Name,
			Message:  fmt.Sprintf("%s did not complete: %v. It stays scheduled and will be retried.", t.Name, err),
			Type:     storage.NotifyError,
			Priority: storage.PriorityHigh,
		})
		return err
	}

	if err := s.store.CompleteTask(ctx, t.ID, now); err != nil {
		// The work ran; a completion-write failure means the next tick may
		// re-select the task. Surface loudly.
		s.log.Error("task ran but completion write failed",
			logx.String("task_id", t.ID), logx.Err(err))
		s.publishTask(eventbus.TopicTaskFailed, t, started, dur, err)
		return err
	}

	s.log.Debug("task completed",
		logx.String("task_id", t.ID),
		logx.String("type", string(t.Type)),
		logx.Duration("took", dur))
	s.publishTask(eventbus.TopicTaskDone, t, started, dur, nil)

	if draft == nil {
		draft = &notify.Draft{
			Title:    "Task completed: " + t.Name,
			Message:  fmt.Sprintf("%s finished successfully.", t.Name),
			Type:     storage.NotifySuccess,
			Priority: storage.PriorityLow,
		}
	}
	s.notifyOutcome(ctx, draft)
	return nil
}

// execute dispatches to the type-keyed executor with a panic barrier so one
// broken executor cannot take down the tick.
func (s *Service) execute(ctx context.Context, t storage.ScheduledTask) (draft *notify.Draft, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in executor",
				logx.String("task_id", t.ID),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())))
			draft = nil
			err = fmt.Errorf("sched: executor panic: %v", r)
		}
	}()

	exec, ok := s.execs[t.Type]
	if !ok {
		return nil, fmt.Errorf("sched: type %q: %w", t.Type, ErrUnknownTaskType)
	}
	return exec.Execute(ctx, t)
}

func (s *Service) notifyOutcome(ctx context.Context, d *notify.Draft) {
	if s.emitter == nil || d == nil {
		return
	}
	if _, err := s.emitter.Notify(ctx, *d); err != nil {
		s.log.Warn("outcome notification failed", logx.Err(err))
	}
}

func (s *Service) publishTask(topic string, t storage.ScheduledTask, started time.Time, dur time.Duration, err error) {
	if s.bus == nil {
		return
	}
	ev := eventbus.TaskEvent{
		TaskID:   t.ID,
		TaskType: string(t.Type),
		Started:  started,
		Duration: dur,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.bus.Publish(eventbus.Event{Topic: topic, Data: ev})
}
