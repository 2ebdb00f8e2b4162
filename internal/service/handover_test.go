package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"aroundu-backend/internal/domain"
)

type handoverFixture struct {
	*ledgerFixture
	proofs     *MockProofRepo
	checklists *MockChecklistRepo
	codes      *MockProximityCodeRepo
	handover   HandoverService
}

func newHandoverFixture() *handoverFixture {
	lf := newLedgerFixture()
	f := &handoverFixture{
		ledgerFixture: lf,
		proofs:        new(MockProofRepo),
		checklists:    new(MockChecklistRepo),
		codes:         new(MockProximityCodeRepo),
	}
	f.handover = NewHandoverService(lf.txs, f.proofs, f.checklists, f.codes, lf.verification, lf.ledger, 5)
	return f
}

// codeConsumed marks phase one as finished: a code was matched and consumed.
func (f *handoverFixture) codeConsumed(phase domain.HandoverPhase) {
	f.codes.On("HasConsumed", mock.Anything, "tx-1", phase).Return(true, nil)
}

func TestSubmitOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("Renter's first pickup submission opens the handover", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusEscrowHeld), nil)
		f.txs.On("UpdateStatus", ctx, "tx-1", domain.StatusEscrowHeld, domain.StatusHandoverInProgress, int64(3)).Return(nil)
		f.expectEvent()
		f.verification.On("VerifyCode", ctx, "tx-1", domain.PhasePickup, "1234").Return(int64(0), nil)

		tx, err := f.handover.SubmitOTP(ctx, "renter-1", "tx-1", "1234")
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusHandoverInProgress, tx.Status)
	})

	t.Run("Owner submits the return code", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusActive), nil)
		f.txs.On("UpdateStatus", ctx, "tx-1", domain.StatusActive, domain.StatusReturnInProgress, int64(3)).Return(nil)
		f.expectEvent()
		f.verification.On("VerifyCode", ctx, "tx-1", domain.PhaseReturn, "4321").Return(int64(0), nil)

		tx, err := f.handover.SubmitOTP(ctx, "owner-1", "tx-1", "4321")
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusReturnInProgress, tx.Status)
	})

	t.Run("The party showing the code may not submit it", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusEscrowHeld), nil)

		_, err := f.handover.SubmitOTP(ctx, "owner-1", "tx-1", "1234")
		assert.True(t, domain.IsKind(err, domain.ErrUnauthorized))
	})

	t.Run("Wrong code below the limit stays retryable", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.verification.On("VerifyCode", ctx, "tx-1", domain.PhasePickup, "0000").
			Return(int64(3), domain.NewError(domain.ErrAuthFailure, "incorrect proximity code"))

		_, err := f.handover.SubmitOTP(ctx, "renter-1", "tx-1", "0000")
		assert.True(t, domain.IsKind(err, domain.ErrAuthFailure))
		f.txs.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Exhausted retries escalate to dispute", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.verification.On("VerifyCode", ctx, "tx-1", domain.PhasePickup, "0000").
			Return(int64(6), domain.NewError(domain.ErrAuthFailure, "incorrect proximity code"))
		f.txs.On("UpdateStatus", ctx, "tx-1", domain.StatusHandoverInProgress, domain.StatusDisputed, int64(3)).Return(nil)
		f.txs.On("SetDisputeReason", ctx, "tx-1", "proximity verification retry limit exceeded").Return(nil)
		f.expectEvent()

		_, err := f.handover.SubmitOTP(ctx, "renter-1", "tx-1", "0000")
		assert.True(t, domain.IsKind(err, domain.ErrAuthFailure))
		f.txs.AssertExpectations(t)
	})

	t.Run("No handover is open from REQUESTED", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusRequested), nil)

		_, err := f.handover.SubmitOTP(ctx, "renter-1", "tx-1", "1234")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
	})
}

func TestSubmitProof(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner records the first pickup proof", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codeConsumed(domain.PhasePickup)
		f.proofs.On("Exists", ctx, "tx-1", domain.PhasePickup, domain.ProofPartyOwner).Return(false, nil)
		f.proofs.On("Create", ctx, mock.Anything).Return(nil)

		proof, err := f.handover.SubmitProof(ctx, "owner-1", "tx-1", domain.ProofPartyOwner, "media_abc.mp4")
		assert.NoError(t, err)
		assert.Equal(t, domain.PhasePickup, proof.Phase)
		assert.Equal(t, domain.ProofPartyOwner, proof.CapturedBy)
	})

	t.Run("Renter before owner is out of order", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codeConsumed(domain.PhasePickup)
		f.proofs.On("Exists", ctx, "tx-1", domain.PhasePickup, domain.ProofPartyRenter).Return(false, nil)
		f.proofs.On("Exists", ctx, "tx-1", domain.PhasePickup, domain.ProofPartyOwner).Return(false, nil)

		_, err := f.handover.SubmitProof(ctx, "renter-1", "tx-1", domain.ProofPartyRenter, "media_abc.mp4")
		assert.True(t, domain.IsKind(err, domain.ErrOutOfOrder))
	})

	t.Run("Return phase mirrors the order", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusReturnInProgress), nil)
		f.codeConsumed(domain.PhaseReturn)
		f.proofs.On("Exists", ctx, "tx-1", domain.PhaseReturn, domain.ProofPartyOwner).Return(false, nil)
		f.proofs.On("Exists", ctx, "tx-1", domain.PhaseReturn, domain.ProofPartyRenter).Return(false, nil)

		// At return the renter releases, so the owner going first is rejected.
		_, err := f.handover.SubmitProof(ctx, "owner-1", "tx-1", domain.ProofPartyOwner, "media_abc.mp4")
		assert.True(t, domain.IsKind(err, domain.ErrOutOfOrder))
	})

	t.Run("Second proof from the same party is a duplicate", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codeConsumed(domain.PhasePickup)
		f.proofs.On("Exists", ctx, "tx-1", domain.PhasePickup, domain.ProofPartyOwner).Return(true, nil)

		_, err := f.handover.SubmitProof(ctx, "owner-1", "tx-1", domain.ProofPartyOwner, "media_xyz.mp4")
		assert.True(t, domain.IsKind(err, domain.ErrDuplicateProof))
	})

	t.Run("Proofs wait for proximity verification", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codes.On("HasConsumed", ctx, "tx-1", domain.PhasePickup).Return(false, nil)

		_, err := f.handover.SubmitProof(ctx, "owner-1", "tx-1", domain.ProofPartyOwner, "media_abc.mp4")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
	})

	t.Run("Parties record their own proof", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)

		_, err := f.handover.SubmitProof(ctx, "renter-1", "tx-1", domain.ProofPartyOwner, "media_abc.mp4")
		assert.True(t, domain.IsKind(err, domain.ErrUnauthorized))
	})
}

func TestSubmitChecklist(t *testing.T) {
	ctx := context.Background()

	fullPickupChecklist := domain.Checklist{
		"item_matches_listing":   true,
		"condition_as_described": true,
		"accessories_complete":   true,
	}

	t.Run("Renter files the pickup checklist", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.checklists.On("Upsert", ctx, "tx-1", domain.PhasePickup, fullPickupChecklist).Return(nil)

		err := f.handover.SubmitChecklist(ctx, "renter-1", "tx-1", fullPickupChecklist)
		assert.NoError(t, err)
	})

	t.Run("Owner may not file the pickup checklist", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)

		err := f.handover.SubmitChecklist(ctx, "owner-1", "tx-1", fullPickupChecklist)
		assert.True(t, domain.IsKind(err, domain.ErrUnauthorized))
	})

	t.Run("Missing answers are rejected", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)

		err := f.handover.SubmitChecklist(ctx, "renter-1", "tx-1", domain.Checklist{"item_matches_listing": true})
		assert.True(t, domain.IsKind(err, domain.ErrValidation))
	})
}

func TestCompleteHandover(t *testing.T) {
	ctx := context.Background()

	completeChecklist := domain.Checklist{
		"item_matches_listing":   true,
		"condition_as_described": true,
		"accessories_complete":   true,
	}

	expectBothProofs := func(f *handoverFixture, phase domain.HandoverPhase) {
		f.proofs.On("Exists", mock.Anything, "tx-1", phase, domain.ProofPartyOwner).Return(true, nil)
		f.proofs.On("Exists", mock.Anything, "tx-1", phase, domain.ProofPartyRenter).Return(true, nil)
	}

	t.Run("Pickup completion starts the rental", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codeConsumed(domain.PhasePickup)
		expectBothProofs(f, domain.PhasePickup)
		f.checklists.On("Get", ctx, "tx-1", domain.PhasePickup).Return(completeChecklist, nil)
		f.txs.On("UpdateStatus", ctx, "tx-1", domain.StatusHandoverInProgress, domain.StatusActive, int64(3)).Return(nil)
		f.expectEvent()
		// going active arms the return leg; the renter holds that code
		f.verification.On("IssueCode", ctx, "tx-1", domain.PhaseReturn).Return("9876", nil)
		f.users.On("GetByID", ctx, "renter-1").Return(verifiedUser("renter-1", 60), nil)
		f.email.On("SendProximityCode", ctx, mock.Anything, mock.Anything, "9876", domain.PhaseReturn).Return(nil)

		tx, err := f.handover.CompleteHandover(ctx, "renter-1", "tx-1")
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusActive, tx.Status)
	})

	t.Run("Return completion finishes the transaction", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusReturnInProgress), nil)
		f.codeConsumed(domain.PhaseReturn)
		expectBothProofs(f, domain.PhaseReturn)
		f.checklists.On("Get", ctx, "tx-1", domain.PhaseReturn).Return(domain.Checklist{
			"item_returned":        true,
			"condition_acceptable": true,
			"accessories_complete": true,
		}, nil)
		f.txs.On("UpdateStatus", ctx, "tx-1", domain.StatusReturnInProgress, domain.StatusCompleted, int64(3)).Return(nil)
		f.expectEvent()

		tx, err := f.handover.CompleteHandover(ctx, "owner-1", "tx-1")
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, tx.Status)
	})

	t.Run("A vanished unverified code does not count as verified", func(t *testing.T) {
		// The expiry sweep purges unconsumed codes, so an absent row must
		// block completion rather than pass for a finished verification.
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codes.On("HasConsumed", ctx, "tx-1", domain.PhasePickup).Return(false, nil)
		expectBothProofs(f, domain.PhasePickup)
		f.checklists.On("Get", ctx, "tx-1", domain.PhasePickup).Return(completeChecklist, nil)

		_, err := f.handover.CompleteHandover(ctx, "renter-1", "tx-1")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
		f.txs.AssertNotCalled(t, "UpdateStatus",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing proof blocks completion", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codeConsumed(domain.PhasePickup)
		f.proofs.On("Exists", mock.Anything, "tx-1", domain.PhasePickup, domain.ProofPartyOwner).Return(true, nil)
		f.proofs.On("Exists", mock.Anything, "tx-1", domain.PhasePickup, domain.ProofPartyRenter).Return(false, nil)

		_, err := f.handover.CompleteHandover(ctx, "renter-1", "tx-1")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
	})

	t.Run("Incomplete checklist blocks completion", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.codeConsumed(domain.PhasePickup)
		expectBothProofs(f, domain.PhasePickup)
		f.checklists.On("Get", ctx, "tx-1", domain.PhasePickup).Return(domain.Checklist{
			"item_matches_listing":   true,
			"condition_as_described": false,
			"accessories_complete":   true,
		}, nil)

		_, err := f.handover.CompleteHandover(ctx, "renter-1", "tx-1")
		assert.True(t, domain.IsKind(err, domain.ErrInvalidState))
	})
}

func TestAbortHandover(t *testing.T) {
	ctx := context.Background()

	t.Run("Abort goes to dispute with the reason", func(t *testing.T) {
		f := newHandoverFixture()
		f.txs.On("GetByID", ctx, "tx-1").Return(baseTransaction(domain.StatusHandoverInProgress), nil)
		f.txs.On("UpdateStatus", ctx, "tx-1", domain.StatusHandoverInProgress, domain.StatusDisputed, int64(3)).Return(nil)
		f.txs.On("SetDisputeReason", ctx, "tx-1", "item not as described").Return(nil)
		f.expectEvent()

		tx, err := f.handover.Abort(ctx, "renter-1", "tx-1", "item not as described")
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusDisputed, tx.Status)
		assert.Equal(t, "item not as described", tx.DisputeReason)
	})

	t.Run("Abort requires a reason", func(t *testing.T) {
		f := newHandoverFixture()
		_, err := f.handover.Abort(ctx, "renter-1", "tx-1", "")
		assert.True(t, domain.IsKind(err, domain.ErrValidation))
	})
}
