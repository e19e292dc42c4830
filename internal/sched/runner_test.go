package sched

import (
	"context"
	"testing"
	"time"

	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

func TestRunnerStartStop(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	r := NewRunner(svc, "@every 1h", time.UTC, logx.Nop())

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting again is a no-op.
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(stopCtx)
	// Stopping a stopped runner is safe.
	r.Stop(stopCtx)
}

func TestRunnerRejectsBadSpec(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	r := NewRunner(svc, "never oclock", time.UTC, logx.Nop())
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestRunnerTicksOnSchedule(t *testing.T) {
	t.Parallel()
	svc, st := newTestService(t)

	exec := &stubExecutor{typ: storage.TaskMaintenance}
	svc.Register(exec)
	insertTask(t, st, "maintenance_due", storage.TaskMaintenance, time.Now().Add(-time.Minute))

	r := NewRunner(svc, "@every 100ms", time.UTC, logx.Nop())
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		r.Stop(ctx)
	}()

	deadline := time.After(3 * time.Second)
	for exec.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("runner never processed the due task")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestRunnerApplyRestartsOnChange(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	r := NewRunner(svc, "@every 1h", time.UTC, logx.Nop())

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		r.Stop(ctx)
	}()

	// Unchanged settings do not restart.
	r.Apply("@every 1h", time.UTC)
	r.mu.Lock()
	stillRunning := r.c != nil
	r.mu.Unlock()
	if !stillRunning {
		t.Fatal("runner stopped on a no-op Apply")
	}

	r.Apply("@every 2h", time.UTC)
	r.mu.Lock()
	spec, running := r.spec, r.c != nil
	r.mu.Unlock()
	if spec != "@every 2h" || !running {
		t.Fatalf("after Apply: spec=%q running=%v", spec, running)
	}
}
