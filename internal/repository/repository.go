package repository

import (
	"context"
	"errors"
	"time"

	"aroundu-backend/internal/domain"
)

// ErrNotFound is returned when a record does not exist. Services translate
// it into a typed NOT_FOUND error.
var ErrNotFound = errors.New("record not found")

// ErrStale is returned when a guarded update matched zero rows: the row's
// status, escrow state, or version moved underneath the caller. Services
// translate it into CONFLICT or INVALID_STATE after re-reading.
var ErrStale = errors.New("stale record state")

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// UpdateStatus commits a transition only when the row still carries the
	// expected status and version; ErrStale otherwise. The version is bumped
	// so concurrent writers serialize per transaction.
	UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, version int64) error
	// HoldEscrow commits REQUESTED→ESCROW_HELD, escrow_state NONE→HELD, and
	// the hold reference in one guarded update, so no crash can leave the
	// status and the escrow state disagreeing. ErrStale if the row moved.
	HoldEscrow(ctx context.Context, id, holdRef string, version int64) error
	// SetEscrowState is the single atomic check-and-set for the monotonic
	// escrow field; at most one of two racing calls succeeds.
	SetEscrowState(ctx context.Context, id string, from, to domain.EscrowState) error
	SetDisputeReason(ctx context.Context, id, reason string) error
	HasOverlapping(ctx context.Context, itemID, startDate, endDate string) (bool, error)
	ListByRenter(ctx context.Context, renterID string, status string, page, pageSize int64) ([]domain.Transaction, int64, error)
	ListByOwner(ctx context.Context, ownerID string, status string, page, pageSize int64) ([]domain.Transaction, int64, error)
	ListOverdueActive(ctx context.Context, today string) ([]domain.Transaction, error)
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query, category string, maxPriceCents, page, pageSize int64) ([]domain.Item, int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateTrustScore is version-guarded; ErrStale on a lost race.
	UpdateTrustScore(ctx context.Context, id string, score, version int64) error
}

type ProofRepository interface {
	Create(ctx context.Context, proof *domain.Proof) error
	ListByTx(ctx context.Context, txID string) ([]domain.Proof, error)
	Exists(ctx context.Context, txID string, phase domain.HandoverPhase, party domain.ProofParty) (bool, error)
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Proof, error)
	Delete(ctx context.Context, id string) error
}

type ProximityCodeRepository interface {
	Create(ctx context.Context, code *domain.ProximityCode) error
	// GetActive returns the unconsumed code for a transaction phase, or
	// ErrNotFound when none exists.
	GetActive(ctx context.Context, txID string, phase domain.HandoverPhase) (*domain.ProximityCode, error)
	// Consume flips consumed false→true atomically; ErrStale if already
	// consumed, so a correct code matches exactly once.
	Consume(ctx context.Context, id string) error
	// IncrementAttempts bumps the bounded retry counter and returns the new
	// total.
	IncrementAttempts(ctx context.Context, id string) (int64, error)
	// HasConsumed reports whether any code for the transaction phase was
	// matched and consumed. Consumed rows are never purged, so this is the
	// durable record that proximity verification happened.
	HasConsumed(ctx context.Context, txID string, phase domain.HandoverPhase) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ChecklistRepository interface {
	// Upsert stores the answers for one transaction phase, replacing any
	// prior submission.
	Upsert(ctx context.Context, txID string, phase domain.HandoverPhase, answers domain.Checklist) error
	Get(ctx context.Context, txID string, phase domain.HandoverPhase) (domain.Checklist, error)
}

type EscrowRepository interface {
	CreateEntry(ctx context.Context, entry *domain.EscrowEntry) error
	// GetHold returns the HOLD entry for a transaction, or ErrNotFound.
	GetHold(ctx context.Context, txID string) (*domain.EscrowEntry, error)
	ListByTx(ctx context.Context, txID string) ([]domain.EscrowEntry, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.StatusChange) error
	ListUndispatched(ctx context.Context, limit int64) ([]domain.StatusChange, error)
	MarkDispatched(ctx context.Context, id int64) error
}

type TrustRepository interface {
	CreateEntry(ctx context.Context, entry *domain.TrustScoreEntry) error
	// CountOutcomes tallies the user's finished transactions by outcome.
	CountOutcomes(ctx context.Context, userID string) (completed, disputed int64, err error)
	ListByUser(ctx context.Context, userID string, page, pageSize int64) ([]domain.TrustScoreEntry, int64, error)
}
