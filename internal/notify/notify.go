// Package notify records user-facing notifications describing task
// outcomes. It is a thin persistence layer: inserts are immutable, reads
// come back newest-first, and marking read is the only permitted mutation.
//
// Outbound delivery (email, chat) is an external collaborator; an optional
// Transport receives a copy of every emitted notification.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"opsdash/internal/eventbus"
	"opsdash/internal/storage"
	logx "opsdash/pkg/logx"
)

// Draft is the caller-facing shape of a new notification.
type Draft struct {
	Title       string
	Message     string
	Type        storage.NotificationType
	Priority    storage.Priority
	ActionURL   string
	ActionLabel string
}

// Transport forwards emitted notifications to an external channel.
// Implementations must not block for long; failures are logged, not
// propagated, since the persisted row is the source of truth.
type Transport interface {
	Deliver(ctx context.Context, n storage.AdminNotification) error
}

type Emitter struct {
	store     storage.Store
	transport Transport
	bus       eventbus.Bus
	log       logx.Logger
}

func NewEmitter(store storage.Store, bus eventbus.Bus, log logx.Logger) *Emitter {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Emitter{store: store, bus: bus, log: log}
}

// SetTransport installs an optional outbound delivery channel.
func (e *Emitter) SetTransport(t Transport) { e.transport = t }

// Notify persists one notification and returns the stored row.
func (e *Emitter) Notify(ctx context.Context, d Draft) (storage.AdminNotification, error) {
	if d.Type == "" {
		d.Type = storage.NotifyInfo
	}
	if d.Priority == "" {
		d.Priority = storage.PriorityMedium
	}
	n := storage.AdminNotification{
		ID:          uuid.NewString(),
		Title:       d.Title,
		Message:     d.Message,
		Type:        d.Type,
		Priority:    d.Priority,
		ActionURL:   d.ActionURL,
		ActionLabel: d.ActionLabel,
		CreatedAt:   time.Now(),
	}
	if err := e.store.InsertNotification(ctx, n); err != nil {
		return storage.AdminNotification{}, fmt.Errorf("notify: %w", err)
	}

	if e.bus != nil {
		e.bus.Publish(eventbus.Event{Topic: eventbus.TopicNotification, Data: n})
	}
	if e.transport != nil {
		if err := e.transport.Deliver(ctx, n); err != nil {
			e.log.Warn("notification delivery failed",
				logx.String("id", n.ID), logx.Err(err))
		}
	}
	return n, nil
}

// Unread returns unread notifications, newest first.
func (e *Emitter) Unread(ctx context.Context, limit int) ([]storage.AdminNotification, error) {
	return e.store.UnreadNotifications(ctx, limit)
}

// MarkRead acknowledges one notification. Re-acknowledging is a no-op.
func (e *Emitter) MarkRead(ctx context.Context, id string) error {
	return e.store.MarkNotificationRead(ctx, id)
}
