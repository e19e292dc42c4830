package sched

import (
	"context"
	"time"

	"opsdash/internal/storage"
)

// TaskInfo is the operator-facing view of one scheduled task.
type TaskInfo struct {
	ID       string
	Name     string
	Type     storage.TaskType
	Schedule string
	NextRun  time.Time
	LastRun  time.Time
	Status   storage.TaskStatus
}

// Snapshot summarizes the scheduler's persisted state for status surfaces.
type Snapshot struct {
	Active    int
	Completed int
	Paused    int
	Tasks     []TaskInfo
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Tasks: make([]TaskInfo, 0, len(tasks))}
	for _, t := range tasks {
		switch t.Status {
		case storage.TaskActive:
			snap.Active++
		case storage.TaskCompleted:
			snap.Completed++
		case storage.TaskPaused:
			snap.Paused++
		}
		snap.Tasks = append(snap.Tasks, TaskInfo{
			ID:       t.ID,
			Name:     t.Name,
			Type:     t.Type,
			Schedule: t.Schedule,
			NextRun:  t.NextRun,
			LastRun:  t.LastRun,
			Status:   t.Status,
		})
	}
	return snap, nil
}
