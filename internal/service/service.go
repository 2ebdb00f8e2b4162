package service

import (
	"context"

	"aroundu-backend/internal/domain"
)

// LedgerService owns the canonical transaction state machine. All status
// mutations in the system flow through Transition.
type LedgerService interface {
	// CreateTransaction books the rental and issues the pickup proximity
	// code to the owner out of band. The plaintext never appears in the
	// result: the renter proves co-location by typing it.
	CreateTransaction(ctx context.Context, renterID, itemID, startDate, endDate string) (*domain.Transaction, error)
	// Transition applies one event from the closed transition table. Guarded
	// events (ESCROW_HELD, *_COMPLETED) are invoked only by the escrow and
	// handover services once their preconditions hold.
	Transition(ctx context.Context, txID string, event domain.TransitionEvent) (*domain.Transaction, error)
	Dispute(ctx context.Context, callerID, txID, reason string) (*domain.Transaction, error)
	Cancel(ctx context.Context, callerID, txID, reason string) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, callerID, txID string) (*domain.Transaction, error)
	ListRentals(ctx context.Context, renterID, status string, page, pageSize int64) ([]domain.Transaction, int64, error)
	ListLendings(ctx context.Context, ownerID, status string, page, pageSize int64) ([]domain.Transaction, int64, error)
}

// EscrowService tracks funds held against transactions. Release and refund
// are mutually exclusive per transaction, enforced by the escrow-state
// check-and-set rather than re-check-then-act.
type EscrowService interface {
	HoldFunds(ctx context.Context, callerID, txID string, amountCents int64) (*domain.EscrowEntry, error)
	Release(ctx context.Context, callerID, txID string) (*domain.EscrowEntry, error)
	Refund(ctx context.Context, txID, reason string) (*domain.EscrowEntry, error)
	History(ctx context.Context, txID string) ([]domain.EscrowEntry, error)
}

// HandoverService drives the two-party proximity + proof + checklist
// exchange, once for pickup and mirrored for return.
type HandoverService interface {
	SubmitOTP(ctx context.Context, callerID, txID, code string) (*domain.Transaction, error)
	SubmitProof(ctx context.Context, callerID, txID string, capturedBy domain.ProofParty, mediaRef string) (*domain.Proof, error)
	SubmitChecklist(ctx context.Context, callerID, txID string, answers domain.Checklist) error
	CompleteHandover(ctx context.Context, callerID, txID string) (*domain.Transaction, error)
	Abort(ctx context.Context, callerID, txID, reason string) (*domain.Transaction, error)
}

// VerificationService issues and checks single-use proximity codes.
type VerificationService interface {
	// IssueCode returns the plaintext code exactly once; only its bcrypt
	// hash is stored.
	IssueCode(ctx context.Context, txID string, phase domain.HandoverPhase) (string, error)
	// VerifyCode consumes the code on a match. On mismatch it returns an
	// AUTH_FAILURE error plus the attempt count so the caller can enforce
	// the bounded retry policy.
	VerifyCode(ctx context.Context, txID string, phase domain.HandoverPhase, submitted string) (attempts int64, err error)
}

// TrustService recomputes reputation from transaction outcomes. Recompute is
// driven only by ledger status-change events, never by external callers.
type TrustService interface {
	Recompute(ctx context.Context, userID, txID string, outcome domain.TransactionStatus) (int64, error)
	GetUserTrustScore(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string, page, pageSize int64) ([]domain.TrustScoreEntry, int64, error)
}

type ItemService interface {
	AddItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	UpdateItem(ctx context.Context, callerID string, item *domain.Item) error
	DeleteItem(ctx context.Context, callerID, id string) error
	SearchItems(ctx context.Context, query, category string, maxPriceCents, page, pageSize int64) ([]domain.Item, int64, error)
}

type EmailService interface {
	SendStatusNotification(ctx context.Context, email, name, itemTitle string, status domain.TransactionStatus) error
	SendProximityCode(ctx context.Context, email, name, code string, phase domain.HandoverPhase) error
	SendDisputeNotification(ctx context.Context, email, name, itemTitle, reason string) error
	SendReturnReminder(ctx context.Context, email, name, itemTitle, endDate string) error
}

// StatusChangeSubscriber receives ledger transition events. Delivery is
// at-least-once; implementations must be idempotent.
type StatusChangeSubscriber interface {
	OnStatusChange(ctx context.Context, change *domain.StatusChange) error
}
