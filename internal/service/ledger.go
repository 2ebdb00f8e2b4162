package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository"
	"aroundu-backend/internal/utils"
)

type ledgerService struct {
	txs          repository.TransactionRepository
	items        repository.ItemRepository
	users        repository.UserRepository
	verification VerificationService
	email        EmailService
	dispatcher   *EventDispatcher

	trustBonusCents    int64
	trustBonusMinScore int64
}

// NewLedgerService creates the transaction ledger. The dispatcher receives
// one event per committed transition.
func NewLedgerService(
	txs repository.TransactionRepository,
	items repository.ItemRepository,
	users repository.UserRepository,
	verification VerificationService,
	email EmailService,
	dispatcher *EventDispatcher,
	trustBonusCents, trustBonusMinScore int64,
) LedgerService {
	return &ledgerService{
		txs:                txs,
		items:              items,
		users:              users,
		verification:       verification,
		email:              email,
		dispatcher:         dispatcher,
		trustBonusCents:    trustBonusCents,
		trustBonusMinScore: trustBonusMinScore,
	}
}

// fetchTransaction maps repository lookups to typed errors. Shared by the
// escrow and handover services, which live in this package.
func fetchTransaction(ctx context.Context, txs repository.TransactionRepository, txID string) (*domain.Transaction, error) {
	tx, err := txs.GetByID(ctx, txID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "transaction %s not found", txID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching transaction %s: %w", txID, err)
	}
	return tx, nil
}

func isParticipant(tx *domain.Transaction, userID string) bool {
	return userID == tx.RenterID || userID == tx.OwnerID
}

// partyUser resolves a handover role to the user filling it.
func partyUser(tx *domain.Transaction, party domain.ProofParty) string {
	if party == domain.ProofPartyOwner {
		return tx.OwnerID
	}
	return tx.RenterID
}

func normalizePage(page, pageSize int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func (s *ledgerService) CreateTransaction(ctx context.Context, renterID, itemID, startDate, endDate string) (*domain.Transaction, error) {
	days, err := utils.RentalDays(startDate, endDate)
	if err != nil {
		return nil, domain.WrapError(domain.ErrValidation, err, "invalid rental period: %v", err)
	}

	item, err := s.items.GetByID(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "item %s not found", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching item %s: %w", itemID, err)
	}
	if item.OwnerID == renterID {
		return nil, domain.NewError(domain.ErrValidation, "you cannot rent your own item")
	}

	renter, err := s.users.GetByID(ctx, renterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewError(domain.ErrNotFound, "user %s not found", renterID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching renter %s: %w", renterID, err)
	}
	if renter.KYCStatus != domain.KYCStatusVerified {
		return nil, domain.NewError(domain.ErrUnauthorized, "identity verification is required before renting")
	}

	overlap, err := s.txs.HasOverlapping(ctx, itemID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("checking booking overlap: %w", err)
	}
	if overlap {
		return nil, domain.NewError(domain.ErrConflict, "item is already booked for the requested dates")
	}

	var bonus int64
	if renter.TrustScore >= s.trustBonusMinScore {
		bonus = s.trustBonusCents
	}
	quote := utils.BuildQuote(item, days, bonus)

	tx := &domain.Transaction{
		ID:                uuid.New().String(),
		ItemID:            itemID,
		RenterID:          renterID,
		OwnerID:           item.OwnerID,
		StartDate:         startDate,
		EndDate:           endDate,
		RentalFeeCents:    quote.RentalFeeCents,
		InsuranceFeeCents: quote.InsuranceFeeCents,
		TrustBonusCents:   quote.TrustBonusCents,
		TotalCents:        quote.TotalCents,
		Status:            domain.StatusRequested,
		EscrowState:       domain.EscrowStateNone,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	// The owner shows this code at pickup; the renter keys it in to prove
	// both parties are co-located. It is delivered to the owner only, never
	// to the renter who must type it.
	code, err := s.verification.IssueCode(ctx, tx.ID, domain.PhasePickup)
	if err != nil {
		return nil, fmt.Errorf("issuing pickup code: %w", err)
	}

	owner, err := s.users.GetByID(ctx, tx.OwnerID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load owner for pickup code delivery", "tx_id", tx.ID, "error", err)
	} else if eerr := s.email.SendProximityCode(ctx, owner.Email, owner.Name, code, domain.PhasePickup); eerr != nil {
		logger.Warn("failed to email pickup code", "tx_id", tx.ID, "error", eerr)
	}

	logger.InfoContext(ctx, "transaction created",
		"tx_id", tx.ID, "item_id", itemID, "renter_id", renterID,
		"total_cents", quote.TotalCents, "days", days)

	return tx, nil
}

func (s *ledgerService) Transition(ctx context.Context, txID string, event domain.TransitionEvent) (*domain.Transaction, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}

	to, ok := domain.NextStatus(tx.Status, event)
	if !ok {
		if tx.Status.Terminal() {
			return nil, domain.StateError(tx.Status, "transaction is closed")
		}
		return nil, domain.StateError(tx.Status, "event %s is not legal from status %s", event, tx.Status)
	}

	from := tx.Status
	if err := s.txs.UpdateStatus(ctx, txID, from, to, tx.Version); err != nil {
		if errors.Is(err, repository.ErrStale) {
			current, rerr := s.txs.GetByID(ctx, txID)
			if rerr != nil {
				return nil, fmt.Errorf("refetching after lost transition race: %w", rerr)
			}
			return nil, domain.ConflictError(current.Status)
		}
		return nil, fmt.Errorf("committing transition %s: %w", event, err)
	}

	tx.Status = to
	tx.Version++
	tx.UpdatedOn = time.Now()

	logger.InfoContext(ctx, "transaction transitioned",
		"tx_id", txID, "event", event, "from", from, "to", to)

	s.dispatcher.Emit(ctx, txID, from, to)

	if to == domain.StatusActive {
		s.issueReturnCode(ctx, tx)
	}
	return tx, nil
}

// issueReturnCode arms the return handover the moment the rental goes
// active. The renter holds this code and shows it when bringing the item
// back; the owner keys it in. Failures are logged, not fatal: the
// overdue-rental job retries issuance for rentals still missing a return
// code.
func (s *ledgerService) issueReturnCode(ctx context.Context, tx *domain.Transaction) {
	code, err := s.verification.IssueCode(ctx, tx.ID, domain.PhaseReturn)
	if err != nil {
		if !domain.IsKind(err, domain.ErrAlreadyIssued) {
			logger.ErrorContext(ctx, "failed to issue return code", "tx_id", tx.ID, "error", err)
		}
		return
	}
	renter, err := s.users.GetByID(ctx, tx.RenterID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load renter for return code delivery", "tx_id", tx.ID, "error", err)
		return
	}
	if err := s.email.SendProximityCode(ctx, renter.Email, renter.Name, code, domain.PhaseReturn); err != nil {
		logger.Warn("failed to email return code", "tx_id", tx.ID, "error", err)
	}
}

func (s *ledgerService) Dispute(ctx context.Context, callerID, txID, reason string) (*domain.Transaction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewError(domain.ErrValidation, "a dispute reason is required")
	}
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(tx, callerID) {
		return nil, domain.NewError(domain.ErrUnauthorized, "only transaction participants may raise a dispute")
	}

	updated, err := s.Transition(ctx, txID, domain.EventDisputed)
	if err != nil {
		return nil, err
	}
	if err := s.txs.SetDisputeReason(ctx, txID, reason); err != nil {
		logger.ErrorContext(ctx, "failed to record dispute reason", "tx_id", txID, "error", err)
	}
	updated.DisputeReason = reason
	return updated, nil
}

func (s *ledgerService) Cancel(ctx context.Context, callerID, txID, reason string) (*domain.Transaction, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(tx, callerID) {
		return nil, domain.NewError(domain.ErrUnauthorized, "only transaction participants may cancel")
	}
	// The transition table only admits CANCELLED from REQUESTED and
	// ESCROW_HELD; once a handover has begun the parties must dispute.
	updated, err := s.Transition(ctx, txID, domain.EventCancelled)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "transaction cancelled", "tx_id", txID, "by", callerID, "reason", reason)
	return updated, nil
}

func (s *ledgerService) GetTransaction(ctx context.Context, callerID, txID string) (*domain.Transaction, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(tx, callerID) {
		return nil, domain.NewError(domain.ErrUnauthorized, "only transaction participants may view this transaction")
	}
	return tx, nil
}

func (s *ledgerService) ListRentals(ctx context.Context, renterID, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.txs.ListByRenter(ctx, renterID, status, page, pageSize)
}

func (s *ledgerService) ListLendings(ctx context.Context, ownerID, status string, page, pageSize int64) ([]domain.Transaction, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.txs.ListByOwner(ctx, ownerID, status, page, pageSize)
}
