package service

import (
	"context"
	"errors"
	"fmt"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/payment"
	"aroundu-backend/internal/repository"
)

type escrowService struct {
	txs        repository.TransactionRepository
	escrow     repository.EscrowRepository
	gateway    payment.Gateway
	dispatcher *EventDispatcher
}

// NewEscrowService creates the escrow controller. It subscribes itself to
// ledger events so refunds follow cancellations and disputes, and release
// follows completion, without any caller action.
func NewEscrowService(
	txs repository.TransactionRepository,
	escrow repository.EscrowRepository,
	gateway payment.Gateway,
	dispatcher *EventDispatcher,
) EscrowService {
	s := &escrowService{
		txs:        txs,
		escrow:     escrow,
		gateway:    gateway,
		dispatcher: dispatcher,
	}
	dispatcher.Subscribe(s)
	return s
}

// mapGatewayError classifies a payment gateway failure. A deadline blown
// while waiting on the gateway surfaces as TIMED_OUT so the caller knows the
// side effect may or may not have landed.
func mapGatewayError(ctx context.Context, err error, operation string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTimedOut, err, "payment gateway timed out while %s", operation)
	}
	return domain.WrapError(domain.ErrPayment, err, "payment gateway failed while %s", operation)
}

func (s *escrowService) HoldFunds(ctx context.Context, callerID, txID string, amountCents int64) (*domain.EscrowEntry, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if callerID != "" && callerID != tx.RenterID {
		return nil, domain.NewError(domain.ErrUnauthorized, "only the renter funds escrow")
	}
	if amountCents != tx.TotalCents {
		return nil, domain.NewError(domain.ErrPayment,
			"amount %d does not match the quoted total %d", amountCents, tx.TotalCents)
	}

	// Funding twice is a no-op returning the existing hold.
	if tx.EscrowState == domain.EscrowStateHeld {
		return s.getHold(ctx, txID)
	}
	if tx.Status != domain.StatusRequested {
		return nil, domain.StateError(tx.Status, "escrow can only be funded for a requested transaction")
	}

	// The gateway call is a network await; no engine state is locked across
	// it. HoldEscrow below is the single commit point: status, escrow state,
	// and the hold reference land together or not at all.
	holdRef, err := s.gateway.Hold(ctx, amountCents, tx.RenterID)
	if err != nil {
		return nil, mapGatewayError(ctx, err, "holding funds")
	}

	if herr := s.txs.HoldEscrow(ctx, txID, holdRef, tx.Version); herr != nil {
		if !errors.Is(herr, repository.ErrStale) {
			return nil, fmt.Errorf("committing escrow hold: %w", herr)
		}
		// Lost the race (or the transaction moved); give the money back.
		if rerr := s.gateway.Refund(ctx, holdRef); rerr != nil {
			logger.ErrorContext(ctx, "failed to refund orphaned hold",
				"tx_id", txID, "hold_ref", holdRef, "error", rerr)
		}
		current, rerr := s.txs.GetByID(ctx, txID)
		if rerr != nil {
			return nil, fmt.Errorf("refetching after lost funding race: %w", rerr)
		}
		if current.EscrowState == domain.EscrowStateHeld {
			return s.getHold(ctx, txID)
		}
		return nil, domain.ConflictError(current.Status)
	}

	s.dispatcher.Emit(ctx, txID, domain.StatusRequested, domain.StatusEscrowHeld)

	entry := &domain.EscrowEntry{
		TxID:        txID,
		Type:        domain.EscrowEntryHold,
		AmountCents: amountCents,
		HoldRef:     holdRef,
	}
	if err := s.escrow.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording escrow hold entry: %w", err)
	}

	logger.InfoContext(ctx, "escrow funded", "tx_id", txID, "amount_cents", amountCents, "hold_ref", holdRef)
	return entry, nil
}

func (s *escrowService) Release(ctx context.Context, callerID, txID string) (*domain.EscrowEntry, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if callerID != "" && !isParticipant(tx, callerID) {
		return nil, domain.NewError(domain.ErrUnauthorized, "only transaction participants may release escrow")
	}
	if tx.Status != domain.StatusCompleted {
		return nil, domain.StateError(tx.Status, "escrow release requires a completed transaction")
	}
	return s.settle(ctx, tx, domain.EscrowStateReleased, domain.EscrowEntryRelease, "")
}

func (s *escrowService) Refund(ctx context.Context, txID, reason string) (*domain.EscrowEntry, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusCancelled && tx.Status != domain.StatusDisputed {
		return nil, domain.StateError(tx.Status, "escrow refund requires a cancelled or disputed transaction")
	}
	return s.settle(ctx, tx, domain.EscrowStateRefunded, domain.EscrowEntryRefund, reason)
}

// settle moves held funds to their terminal disposition. The HELD→to
// check-and-set is the single commit point: of two racing settlements at
// most one proceeds to the gateway, and release/refund can never both
// happen for one transaction.
func (s *escrowService) settle(ctx context.Context, tx *domain.Transaction, to domain.EscrowState, entryType domain.EscrowEntryType, reason string) (*domain.EscrowEntry, error) {
	hold, err := s.escrow.GetHold(ctx, tx.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.StateError(tx.Status, "no funds are held for this transaction")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching escrow hold: %w", err)
	}

	if err := s.txs.SetEscrowState(ctx, tx.ID, domain.EscrowStateHeld, to); err != nil {
		if errors.Is(err, repository.ErrStale) {
			return s.settledEntry(ctx, tx, to, entryType)
		}
		return nil, fmt.Errorf("claiming escrow settlement: %w", err)
	}

	var gerr error
	switch entryType {
	case domain.EscrowEntryRelease:
		gerr = s.gateway.Capture(ctx, hold.HoldRef)
	default:
		gerr = s.gateway.Refund(ctx, hold.HoldRef)
	}
	if gerr != nil {
		// Hand the claim back so a retry can settle.
		if rerr := s.txs.SetEscrowState(ctx, tx.ID, to, domain.EscrowStateHeld); rerr != nil {
			logger.ErrorContext(ctx, "failed to revert escrow claim after gateway failure",
				"tx_id", tx.ID, "error", rerr)
		}
		return nil, mapGatewayError(ctx, gerr, "settling held funds")
	}

	entry := &domain.EscrowEntry{
		TxID:        tx.ID,
		Type:        entryType,
		AmountCents: hold.AmountCents,
		HoldRef:     hold.HoldRef,
		Reason:      reason,
	}
	if err := s.escrow.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording escrow %s entry: %w", entryType, err)
	}

	logger.InfoContext(ctx, "escrow settled", "tx_id", tx.ID, "type", entryType, "amount_cents", hold.AmountCents)
	return entry, nil
}

// settledEntry resolves a lost settlement race idempotently: if the funds
// already reached the requested disposition, return the existing ledger
// entry instead of failing.
func (s *escrowService) settledEntry(ctx context.Context, tx *domain.Transaction, want domain.EscrowState, entryType domain.EscrowEntryType) (*domain.EscrowEntry, error) {
	current, err := s.txs.GetByID(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("refetching after lost settlement race: %w", err)
	}
	if current.EscrowState != want {
		return nil, domain.StateError(current.Status, "escrow already settled as %s", current.EscrowState)
	}
	entries, err := s.escrow.ListByTx(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("listing escrow entries: %w", err)
	}
	for i := range entries {
		if entries[i].Type == entryType {
			return &entries[i], nil
		}
	}
	return nil, domain.ConflictError(current.Status)
}

func (s *escrowService) History(ctx context.Context, txID string) ([]domain.EscrowEntry, error) {
	return s.escrow.ListByTx(ctx, txID)
}

func (s *escrowService) getHold(ctx context.Context, txID string) (*domain.EscrowEntry, error) {
	hold, err := s.escrow.GetHold(ctx, txID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewError(domain.ErrPayment, "escrow state is held but no hold entry exists")
	}
	if err != nil {
		return nil, fmt.Errorf("fetching escrow hold: %w", err)
	}
	return hold, nil
}

// OnStatusChange settles escrow automatically: completion releases to the
// owner, cancellation refunds the renter. Disputed funds stay held until a
// reviewer invokes Refund explicitly. Idempotent under redelivery because
// settle is a check-and-set.
func (s *escrowService) OnStatusChange(ctx context.Context, change *domain.StatusChange) error {
	var settleErr error
	switch change.NewStatus {
	case domain.StatusCompleted:
		_, settleErr = s.Release(ctx, "", change.TxID)
	case domain.StatusCancelled:
		_, settleErr = s.Refund(ctx, change.TxID, "transaction cancelled")
	default:
		return nil
	}
	if settleErr == nil {
		return nil
	}
	// Nothing held yet, or a concurrent settlement won: the event is done.
	if domain.IsKind(settleErr, domain.ErrInvalidState) {
		return nil
	}
	return settleErr
}
