package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/repository"
)

type escrowFixture struct {
	*ledgerFixture
	escrowRepo *MockEscrowRepo
	gateway    *MockPaymentGateway
	escrow     EscrowService
	dispatcher *EventDispatcher
}

func newEscrowFixture() *escrowFixture {
	lf := newLedgerFixture()
	f := &escrowFixture{
		ledgerFixture: lf,
		escrowRepo:    new(MockEscrowRepo),
		gateway:       new(MockPaymentGateway),
	}
	dispatcher := NewEventDispatcher(lf.events)
	f.dispatcher = dispatcher
	f.ledger = NewLedgerService(lf.txs, lf.items, lf.users, lf.verification, lf.email, dispatcher, 1000, 75)
	f.escrow = NewEscrowService(lf.txs, f.escrowRepo, f.gateway, dispatcher)
	return f
}

func heldTransaction(status domain.TransactionStatus) *domain.Transaction {
	tx := baseTransaction(status)
	tx.EscrowState = domain.EscrowStateHeld
	ref := "hold_abc"
	tx.HoldRef = &ref
	return tx
}

func holdEntry() *domain.EscrowEntry {
	return &domain.EscrowEntry{
		ID:          1,
		TxID:        "tx-1",
		Type:        domain.EscrowEntryHold,
		AmountCents: 9500,
		HoldRef:     "hold_abc",
	}
}

func TestHoldFunds(t *testing.T) {
	ctx := context.Background()

	t.Run("Holds the quoted total and commits in one step", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil)
		f.gateway.On("Hold", ctx, int64(9500), "renter-1").Return("hold_abc", nil)
		f.txs.On("HoldEscrow", ctx, "tx-1", "hold_abc", int64(3)).Return(nil)
		f.expectEvent()
		f.escrowRepo.On("CreateEntry", ctx, mock.Anything).Return(nil)

		entry, err := f.escrow.HoldFunds(ctx, "renter-1", "tx-1", 9500)
		assert.NoError(t, err)
		assert.Equal(t, domain.EscrowEntryHold, entry.Type)
		assert.Equal(t, int64(9500), entry.AmountCents)
		assert.Equal(t, "hold_abc", entry.HoldRef)
		f.gateway.AssertExpectations(t)
		f.txs.AssertExpectations(t)
		// Status, escrow state, and hold ref land in the one guarded update;
		// funding never commits them piecemeal.
		f.txs.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.txs.AssertNotCalled(t, "SetEscrowState",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects an amount that does not match the snapshot", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil)

		_, err := f.escrow.HoldFunds(ctx, "renter-1", "tx-1", 9000)
		assert.True(t, domain.IsKind(err, domain.ErrPayment))
		f.gateway.AssertNotCalled(t, "Hold", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Funding twice returns the existing hold", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusEscrowHeld), nil)
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)

		entry, err := f.escrow.HoldFunds(ctx, "renter-1", "tx-1", 9500)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), entry.ID)
		f.gateway.AssertNotCalled(t, "Hold", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Only the renter may fund", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil)

		_, err := f.escrow.HoldFunds(ctx, "owner-1", "tx-1", 9500)
		assert.True(t, domain.IsKind(err, domain.ErrUnauthorized))
	})

	t.Run("Refunds the gateway hold when the commit is lost", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil).Once()
		f.gateway.On("Hold", ctx, int64(9500), "renter-1").Return("hold_abc", nil)
		f.txs.On("HoldEscrow", ctx, "tx-1", "hold_abc", int64(3)).Return(repository.ErrStale)
		f.gateway.On("Refund", ctx, "hold_abc").Return(nil)
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusCancelled), nil).Once()

		_, err := f.escrow.HoldFunds(ctx, "renter-1", "tx-1", 9500)
		assert.True(t, domain.IsKind(err, domain.ErrConflict))
		f.gateway.AssertCalled(t, "Refund", ctx, "hold_abc")
	})

	t.Run("Losing the commit to a concurrent funding returns its hold", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil).Once()
		f.gateway.On("Hold", ctx, int64(9500), "renter-1").Return("hold_xyz", nil)
		f.txs.On("HoldEscrow", ctx, "tx-1", "hold_xyz", int64(3)).Return(repository.ErrStale)
		f.gateway.On("Refund", ctx, "hold_xyz").Return(nil)
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusEscrowHeld), nil).Once()
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)

		entry, err := f.escrow.HoldFunds(ctx, "renter-1", "tx-1", 9500)
		assert.NoError(t, err)
		assert.Equal(t, "hold_abc", entry.HoldRef)
		f.gateway.AssertCalled(t, "Refund", ctx, "hold_xyz")
	})

	t.Run("Gateway failure maps to PAYMENT", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil)
		f.gateway.On("Hold", ctx, int64(9500), "renter-1").Return("", errors.New("card declined"))

		_, err := f.escrow.HoldFunds(ctx, "renter-1", "tx-1", 9500)
		assert.True(t, domain.IsKind(err, domain.ErrPayment))
	})
}

func TestReleaseEscrow(t *testing.T) {
	ctx := context.Background()

	t.Run("Releases held funds once the transaction completes", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusCompleted), nil)
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)
		f.txs.On("SetEscrowState", ctx, "tx-1", domain.EscrowStateHeld, domain.EscrowStateReleased).Return(nil)
		f.gateway.On("Capture", ctx, "hold_abc").Return(nil)
		f.escrowRepo.On("CreateEntry", ctx, mock.Anything).Return(nil)

		entry, err := f.escrow.Release(ctx, "owner-1", "tx-1")
		assert.NoError(t, err)
		assert.Equal(t, domain.EscrowEntryRelease, entry.Type)
		assert.Equal(t, int64(9500), entry.AmountCents)
	})

	t.Run("Release before completion is illegal", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusActive), nil)

		_, err := f.escrow.Release(ctx, "owner-1", "tx-1")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
		f.gateway.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
	})

	t.Run("Losing the settle race returns the winner's entry", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusCompleted), nil).Once()
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)
		f.txs.On("SetEscrowState", ctx, "tx-1", domain.EscrowStateHeld, domain.EscrowStateReleased).
			Return(repository.ErrStale)

		settled := heldTransaction(domain.StatusCompleted)
		settled.EscrowState = domain.EscrowStateReleased
		f.txs.On("GetByID", ctx, "tx-1").Return(settled, nil).Once()
		f.escrowRepo.On("ListByTx", ctx, "tx-1").Return([]domain.EscrowEntry{
			*holdEntry(),
			{ID: 2, TxID: "tx-1", Type: domain.EscrowEntryRelease, AmountCents: 9500, HoldRef: "hold_abc"},
		}, nil)

		entry, err := f.escrow.Release(ctx, "owner-1", "tx-1")
		assert.NoError(t, err)
		assert.Equal(t, int64(2), entry.ID)
		f.gateway.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
	})

	t.Run("Gateway capture failure hands the claim back", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusCompleted), nil)
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)
		f.txs.On("SetEscrowState", ctx, "tx-1", domain.EscrowStateHeld, domain.EscrowStateReleased).Return(nil)
		f.gateway.On("Capture", ctx, "hold_abc").Return(errors.New("gateway down"))
		f.txs.On("SetEscrowState", ctx, "tx-1", domain.EscrowStateReleased, domain.EscrowStateHeld).Return(nil)

		_, err := f.escrow.Release(ctx, "owner-1", "tx-1")
		assert.True(t, domain.IsKind(err, domain.ErrPayment))
		f.txs.AssertExpectations(t)
	})
}

func TestRefundEscrow(t *testing.T) {
	ctx := context.Background()

	t.Run("Refunds a cancelled transaction", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusCancelled), nil)
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)
		f.txs.On("SetEscrowState", ctx, "tx-1", domain.EscrowStateHeld, domain.EscrowStateRefunded).Return(nil)
		f.gateway.On("Refund", ctx, "hold_abc").Return(nil)
		f.escrowRepo.On("CreateEntry", ctx, mock.Anything).Return(nil)

		entry, err := f.escrow.Refund(ctx, "tx-1", "transaction cancelled")
		assert.NoError(t, err)
		assert.Equal(t, domain.EscrowEntryRefund, entry.Type)
		assert.Equal(t, "transaction cancelled", entry.Reason)
	})

	t.Run("Refund outside cancelled or disputed is illegal", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusCompleted), nil)

		_, err := f.escrow.Refund(ctx, "tx-1", "whoops")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
	})
}

func TestEscrowOnStatusChange(t *testing.T) {
	ctx := context.Background()

	t.Run("Completion triggers release", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(heldTransaction(domain.StatusCompleted), nil)
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(holdEntry(), nil)
		f.txs.On("SetEscrowState", ctx, "tx-1", domain.EscrowStateHeld, domain.EscrowStateReleased).Return(nil)
		f.gateway.On("Capture", ctx, "hold_abc").Return(nil)
		f.escrowRepo.On("CreateEntry", ctx, mock.Anything).Return(nil)

		sub := f.escrow.(StatusChangeSubscriber)
		err := sub.OnStatusChange(ctx, &domain.StatusChange{
			TxID:           "tx-1",
			PreviousStatus: domain.StatusReturnInProgress,
			NewStatus:      domain.StatusCompleted,
		})
		assert.NoError(t, err)
		f.gateway.AssertCalled(t, "Capture", ctx, "hold_abc")
	})

	t.Run("Dispute leaves funds held for review", func(t *testing.T) {
		f := newEscrowFixture()

		sub := f.escrow.(StatusChangeSubscriber)
		err := sub.OnStatusChange(ctx, &domain.StatusChange{
			TxID:           "tx-1",
			PreviousStatus: domain.StatusActive,
			NewStatus:      domain.StatusDisputed,
		})
		assert.NoError(t, err)
		f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	})

	t.Run("Cancellation before funding is a no-op", func(t *testing.T) {
		f := newEscrowFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusCancelled), nil)
		f.escrowRepo.On("GetHold", ctx, "tx-1").Return(nil, repository.ErrNotFound)

		sub := f.escrow.(StatusChangeSubscriber)
		err := sub.OnStatusChange(ctx, &domain.StatusChange{
			TxID:           "tx-1",
			PreviousStatus: domain.StatusRequested,
			NewStatus:      domain.StatusCancelled,
		})
		assert.NoError(t, err)
		f.gateway.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)
	})
}
