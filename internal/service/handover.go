package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository"
)

type handoverService struct {
	txs          repository.TransactionRepository
	proofs       repository.ProofRepository
	checklists   repository.ChecklistRepository
	codes        repository.ProximityCodeRepository
	verification VerificationService
	ledger       LedgerService
	retryLimit   int64
}

// NewHandoverService creates the handover coordinator. retryLimit bounds
// consecutive wrong proximity code submissions; the attempt after the limit
// escalates the transaction to DISPUTED.
func NewHandoverService(
	txs repository.TransactionRepository,
	proofs repository.ProofRepository,
	checklists repository.ChecklistRepository,
	codes repository.ProximityCodeRepository,
	verification VerificationService,
	ledger LedgerService,
	retryLimit int64,
) HandoverService {
	return &handoverService{
		txs:          txs,
		proofs:       proofs,
		checklists:   checklists,
		codes:        codes,
		verification: verification,
		ledger:       ledger,
		retryLimit:   retryLimit,
	}
}

// phaseFor maps a transaction status to the handover phase it admits.
func phaseFor(status domain.TransactionStatus) (domain.HandoverPhase, bool) {
	switch status {
	case domain.StatusEscrowHeld, domain.StatusHandoverInProgress:
		return domain.PhasePickup, true
	case domain.StatusActive, domain.StatusReturnInProgress:
		return domain.PhaseReturn, true
	}
	return "", false
}

func (s *handoverService) SubmitOTP(ctx context.Context, callerID, txID, code string) (*domain.Transaction, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	phase, ok := phaseFor(tx.Status)
	if !ok {
		return nil, domain.StateError(tx.Status, "no handover is open in this state")
	}
	// The receiving party keys in the code the releasing side is showing:
	// the renter at pickup, the owner at return.
	enterer := partyUser(tx, domain.ReceivingParty(phase))
	if callerID != enterer {
		return nil, domain.NewError(domain.ErrUnauthorized,
			"the %s submits the proximity code during %s",
			strings.ToLower(string(domain.ReceivingParty(phase))), strings.ToLower(string(phase)))
	}

	// First submission opens the handover window.
	switch tx.Status {
	case domain.StatusEscrowHeld:
		if tx, err = s.ledger.Transition(ctx, txID, domain.EventHandoverStarted); err != nil {
			return nil, err
		}
	case domain.StatusActive:
		if tx, err = s.ledger.Transition(ctx, txID, domain.EventReturnStarted); err != nil {
			return nil, err
		}
	}

	attempts, verr := s.verification.VerifyCode(ctx, txID, phase, code)
	if verr == nil {
		return tx, nil
	}
	if domain.IsKind(verr, domain.ErrAuthFailure) && attempts > s.retryLimit {
		disputed, derr := s.ledger.Transition(ctx, txID, domain.EventDisputed)
		if derr != nil {
			logger.ErrorContext(ctx, "failed to escalate exhausted proximity retries",
				"tx_id", txID, "error", derr)
			return nil, verr
		}
		reason := "proximity verification retry limit exceeded"
		if serr := s.txs.SetDisputeReason(ctx, txID, reason); serr != nil {
			logger.ErrorContext(ctx, "failed to record dispute reason", "tx_id", txID, "error", serr)
		}
		disputed.DisputeReason = reason
		logger.Warn("handover escalated to dispute after exhausted retries",
			"tx_id", txID, "phase", phase, "attempts", attempts)
	}
	return nil, verr
}

// requireVerified gates the proof and completion steps behind a consumed
// proximity code. Only a consumed row counts: an absent row proves nothing,
// since unconsumed codes are also purged on expiry.
func (s *handoverService) requireVerified(ctx context.Context, tx *domain.Transaction, phase domain.HandoverPhase) error {
	verified, err := s.codes.HasConsumed(ctx, tx.ID, phase)
	if err != nil {
		return fmt.Errorf("checking proximity code state: %w", err)
	}
	if !verified {
		return domain.StateError(tx.Status, "proximity verification must complete before this step")
	}
	return nil
}

func (s *handoverService) SubmitProof(ctx context.Context, callerID, txID string, capturedBy domain.ProofParty, mediaRef string) (*domain.Proof, error) {
	if strings.TrimSpace(mediaRef) == "" {
		return nil, domain.NewError(domain.ErrValidation, "a media reference is required")
	}
	if capturedBy != domain.ProofPartyOwner && capturedBy != domain.ProofPartyRenter {
		return nil, domain.NewError(domain.ErrValidation, "captured_by must be OWNER or RENTER")
	}

	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.StatusHandoverInProgress && tx.Status != domain.StatusReturnInProgress {
		return nil, domain.StateError(tx.Status, "proofs can only be recorded during an open handover")
	}
	phase, _ := phaseFor(tx.Status)

	if callerID != partyUser(tx, capturedBy) {
		return nil, domain.NewError(domain.ErrUnauthorized, "each party records their own proof")
	}
	if err := s.requireVerified(ctx, tx, phase); err != nil {
		return nil, err
	}

	exists, err := s.proofs.Exists(ctx, txID, phase, capturedBy)
	if err != nil {
		return nil, fmt.Errorf("checking for existing proof: %w", err)
	}
	if exists {
		return nil, domain.NewError(domain.ErrDuplicateProof,
			"a %s proof for the %s handover is already recorded",
			strings.ToLower(string(capturedBy)), strings.ToLower(string(phase)))
	}

	// Custody order: the releasing party documents the item before it
	// changes hands, then the receiving party documents what it received.
	releasing := domain.ReleasingParty(phase)
	if capturedBy != releasing {
		first, err := s.proofs.Exists(ctx, txID, phase, releasing)
		if err != nil {
			return nil, fmt.Errorf("checking proof order: %w", err)
		}
		if !first {
			return nil, domain.NewError(domain.ErrOutOfOrder,
				"the %s records proof first during %s",
				strings.ToLower(string(releasing)), strings.ToLower(string(phase)))
		}
	}

	proof := &domain.Proof{
		ID:         uuid.New().String(),
		TxID:       txID,
		Phase:      phase,
		CapturedBy: capturedBy,
		MediaRef:   mediaRef,
	}
	if err := s.proofs.Create(ctx, proof); err != nil {
		return nil, fmt.Errorf("recording proof: %w", err)
	}

	logger.InfoContext(ctx, "handover proof recorded",
		"tx_id", txID, "phase", phase, "captured_by", capturedBy)
	return proof, nil
}

func (s *handoverService) SubmitChecklist(ctx context.Context, callerID, txID string, answers domain.Checklist) error {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return err
	}
	if tx.Status != domain.StatusHandoverInProgress && tx.Status != domain.StatusReturnInProgress {
		return domain.StateError(tx.Status, "the checklist can only be filled during an open handover")
	}
	phase, _ := phaseFor(tx.Status)

	// The receiving party inspects the item, so the checklist is theirs.
	inspector := partyUser(tx, domain.ReceivingParty(phase))
	if callerID != inspector {
		return domain.NewError(domain.ErrUnauthorized,
			"the %s fills the checklist during %s",
			strings.ToLower(string(domain.ReceivingParty(phase))), strings.ToLower(string(phase)))
	}

	for _, key := range domain.RequiredConditions(phase) {
		if _, present := answers[key]; !present {
			return domain.NewError(domain.ErrValidation, "checklist answer %q is required", key)
		}
	}
	if err := s.checklists.Upsert(ctx, txID, phase, answers); err != nil {
		return fmt.Errorf("storing checklist: %w", err)
	}
	return nil
}

func (s *handoverService) CompleteHandover(ctx context.Context, callerID, txID string) (*domain.Transaction, error) {
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(tx, callerID) {
		return nil, domain.NewError(domain.ErrUnauthorized, "only transaction participants may complete a handover")
	}
	if tx.Status != domain.StatusHandoverInProgress && tx.Status != domain.StatusReturnInProgress {
		return nil, domain.StateError(tx.Status, "no handover is open in this state")
	}
	phase, _ := phaseFor(tx.Status)

	if err := s.requireVerified(ctx, tx, phase); err != nil {
		return nil, err
	}
	for _, party := range []domain.ProofParty{domain.ReleasingParty(phase), domain.ReceivingParty(phase)} {
		exists, err := s.proofs.Exists(ctx, txID, phase, party)
		if err != nil {
			return nil, fmt.Errorf("checking proofs: %w", err)
		}
		if !exists {
			return nil, domain.StateError(tx.Status,
				"the %s proof is still missing", strings.ToLower(string(party)))
		}
	}
	answers, err := s.checklists.Get(ctx, txID, phase)
	if err != nil {
		return nil, fmt.Errorf("fetching checklist: %w", err)
	}
	if !answers.Complete(phase) {
		return nil, domain.StateError(tx.Status, "the handover checklist is incomplete")
	}

	event := domain.EventHandoverCompleted
	if phase == domain.PhaseReturn {
		event = domain.EventReturnCompleted
	}
	return s.ledger.Transition(ctx, txID, event)
}

func (s *handoverService) Abort(ctx context.Context, callerID, txID, reason string) (*domain.Transaction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.NewError(domain.ErrValidation, "an abort reason is required")
	}
	tx, err := fetchTransaction(ctx, s.txs, txID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(tx, callerID) {
		return nil, domain.NewError(domain.ErrUnauthorized, "only transaction participants may abort a handover")
	}
	if tx.Status != domain.StatusHandoverInProgress && tx.Status != domain.StatusReturnInProgress {
		return nil, domain.StateError(tx.Status, "no handover is open in this state")
	}

	// Aborting mid-handover leaves custody ambiguous; the transaction goes
	// to dispute for review rather than silently rewinding.
	updated, err := s.ledger.Transition(ctx, txID, domain.EventDisputed)
	if err != nil {
		return nil, err
	}
	if serr := s.txs.SetDisputeReason(ctx, txID, reason); serr != nil {
		logger.ErrorContext(ctx, "failed to record abort reason", "tx_id", txID, "error", serr)
	}
	updated.DisputeReason = reason
	return updated, nil
}
