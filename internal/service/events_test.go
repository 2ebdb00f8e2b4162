package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"aroundu-backend/internal/domain"
)

type recordingSubscriber struct {
	received []*domain.StatusChange
	err      error
}

func (s *recordingSubscriber) OnStatusChange(_ context.Context, change *domain.StatusChange) error {
	s.received = append(s.received, change)
	return s.err
}

func TestEventDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Emit persists, delivers, and marks dispatched", func(t *testing.T) {
		events := new(MockEventRepo)
		dispatcher := NewEventDispatcher(events)
		sub := &recordingSubscriber{}
		dispatcher.Subscribe(sub)

		events.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.StatusChange).ID = 7
		}).Return(nil)
		events.On("MarkDispatched", ctx, int64(7)).Return(nil)

		dispatcher.Emit(ctx, "tx-1", domain.StatusRequested, domain.StatusEscrowHeld)

		assert.Len(t, sub.received, 1)
		assert.Equal(t, domain.StatusEscrowHeld, sub.received[0].NewStatus)
		events.AssertExpectations(t)
	})

	t.Run("A failing subscriber leaves the event undispatched", func(t *testing.T) {
		events := new(MockEventRepo)
		dispatcher := NewEventDispatcher(events)
		healthy := &recordingSubscriber{}
		broken := &recordingSubscriber{err: errors.New("downstream unavailable")}
		dispatcher.Subscribe(healthy)
		dispatcher.Subscribe(broken)

		events.On("Create", ctx, mock.Anything).Return(nil)

		dispatcher.Emit(ctx, "tx-1", domain.StatusReturnInProgress, domain.StatusCompleted)

		assert.Len(t, healthy.received, 1)
		assert.Len(t, broken.received, 1)
		events.AssertNotCalled(t, "MarkDispatched", mock.Anything, mock.Anything)
	})

	t.Run("Redelivery dispatches a stored event without re-creating it", func(t *testing.T) {
		events := new(MockEventRepo)
		dispatcher := NewEventDispatcher(events)
		sub := &recordingSubscriber{}
		dispatcher.Subscribe(sub)

		events.On("MarkDispatched", ctx, int64(42)).Return(nil)

		dispatcher.Dispatch(ctx, &domain.StatusChange{
			ID:             42,
			TxID:           "tx-1",
			PreviousStatus: domain.StatusActive,
			NewStatus:      domain.StatusDisputed,
		})

		assert.Len(t, sub.received, 1)
		events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		events.AssertExpectations(t)
	})
}
