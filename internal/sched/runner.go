package sched

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "opsdash/pkg/logx"
)

// Runner hosts the periodic tick. The design only requires an idempotent
// ProcessDue; Runner is the in-process trigger for deployments that don't
// invoke it externally.
type Runner struct {
	mu sync.Mutex

	svc *Service
	log logx.Logger

	parser cron.Parser
	spec   string
	loc    *time.Location

	c      *cron.Cron
	parent context.Context
	runCtx context.Context
	cancel context.CancelFunc
}

func NewRunner(svc *Service, spec string, loc *time.Location, log logx.Logger) *Runner {
	if loc == nil {
		loc = time.Local
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{
		svc: svc,
		log: log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		spec:   spec,
		loc:    loc,
	}
}

func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil {
		return nil // already running
	}

	r.parent = ctx
	r.runCtx, r.cancel = context.WithCancel(ctx)
	c := cron.New(cron.WithParser(r.parser), cron.WithLocation(r.loc))
	if _, err := c.AddFunc(r.spec, r.tick); err != nil {
		r.cancel()
		r.runCtx, r.cancel = nil, nil
		return err
	}
	r.c = c
	c.Start()
	r.log.Info("tick runner started",
		logx.String("spec", r.spec),
		logx.String("tz", r.loc.String()))
	return nil
}

func (r *Runner) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.c
	cancel := r.cancel
	r.c = nil
	r.runCtx = nil
	r.cancel = nil
	r.mu.Unlock()

	if c == nil {
		return
	}
	if cancel != nil {
		cancel()
	}
	select {
	case <-c.Stop().Done():
		r.log.Info("tick runner stopped")
	case <-ctx.Done():
		// stop continues in background
	}
}

// Apply swaps the cron spec and/or timezone; the runner restarts only when
// something actually changed.
func (r *Runner) Apply(spec string, loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	r.mu.Lock()
	changed := spec != r.spec || loc.String() != r.loc.String()
	running := r.c != nil
	parent := r.parent
	r.spec = spec
	r.loc = loc
	r.mu.Unlock()

	if !changed || !running {
		return
	}
	r.log.Info("tick runner config changed; restarting",
		logx.String("spec", spec), logx.String("tz", loc.String()))
	r.Stop(context.Background())
	if parent == nil {
		parent = context.Background()
	}
	if err := r.Start(parent); err != nil {
		r.log.Error("tick runner restart failed", logx.Err(err))
	}
}

func (r *Runner) tick() {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("panic in tick",
				logx.Any("panic", rec),
				logx.Stack(string(debug.Stack())))
		}
	}()

	r.mu.Lock()
	ctx := r.runCtx
	r.mu.Unlock()
	if ctx == nil {
		return
	}
	if _, err := r.svc.ProcessDue(ctx, time.Now()); err != nil {
		r.log.Error("tick failed", logx.Err(err))
	}
}
