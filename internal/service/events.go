package service

import (
	"context"
	"sync"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository"
)

// EventDispatcher persists status-change events and fans them out to
// subscribers. Events are marked dispatched only when every subscriber
// accepted them; the redelivery job resends the rest, so consumers see
// at-least-once delivery and must be idempotent.
type EventDispatcher struct {
	events repository.EventRepository

	mu          sync.RWMutex
	subscribers []StatusChangeSubscriber
}

func NewEventDispatcher(events repository.EventRepository) *EventDispatcher {
	return &EventDispatcher{events: events}
}

func (d *EventDispatcher) Subscribe(sub StatusChangeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, sub)
}

// Emit records a transition and attempts inline delivery. The transition has
// already committed when Emit runs, so persistence failures are logged, not
// propagated.
func (d *EventDispatcher) Emit(ctx context.Context, txID string, prev, next domain.TransactionStatus) {
	change := &domain.StatusChange{
		TxID:           txID,
		PreviousStatus: prev,
		NewStatus:      next,
		CreatedOn:      time.Now(),
	}
	if err := d.events.Create(ctx, change); err != nil {
		logger.ErrorContext(ctx, "failed to persist status change event",
			"tx_id", txID, "new_status", next, "error", err)
		return
	}
	d.Dispatch(ctx, change)
}

// Dispatch delivers one event to all subscribers. Also the entry point for
// the redelivery job.
func (d *EventDispatcher) Dispatch(ctx context.Context, change *domain.StatusChange) {
	d.mu.RLock()
	subs := make([]StatusChangeSubscriber, len(d.subscribers))
	copy(subs, d.subscribers)
	d.mu.RUnlock()

	delivered := true
	for _, sub := range subs {
		if err := sub.OnStatusChange(ctx, change); err != nil {
			delivered = false
			logger.ErrorContext(ctx, "status change subscriber failed",
				"tx_id", change.TxID, "new_status", change.NewStatus, "error", err)
		}
	}
	if !delivered {
		return
	}
	if err := d.events.MarkDispatched(ctx, change.ID); err != nil {
		logger.ErrorContext(ctx, "failed to mark event dispatched",
			"event_id", change.ID, "error", err)
	}
}
