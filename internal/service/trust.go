package service

import (
	"context"
	"errors"
	"fmt"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository"
)

// Trust score formula parameters. A fresh user starts at the base; history
// moves them within [0,100].
const (
	trustScoreBase     = 50
	trustCompletedStep = 2
	trustCompletedCap  = 40
	trustDisputedStep  = 8
)

const trustUpdateRetries = 3

type trustService struct {
	txs   repository.TransactionRepository
	users repository.UserRepository
	trust repository.TrustRepository
}

// NewTrustService creates the trust aggregator and subscribes it to ledger
// events so scores follow outcomes automatically.
func NewTrustService(
	txs repository.TransactionRepository,
	users repository.UserRepository,
	trust repository.TrustRepository,
	dispatcher *EventDispatcher,
) TrustService {
	s := &trustService{txs: txs, users: users, trust: trust}
	dispatcher.Subscribe(s)
	return s
}

// computeScore derives a score from outcome tallies. Derived from full
// history every time, so redelivered events recompute the same value.
func computeScore(completed, disputed int64) int64 {
	bonus := trustCompletedStep * completed
	if bonus > trustCompletedCap {
		bonus = trustCompletedCap
	}
	score := trustScoreBase + bonus - trustDisputedStep*disputed
	if score < domain.TrustScoreMin {
		return domain.TrustScoreMin
	}
	if score > domain.TrustScoreMax {
		return domain.TrustScoreMax
	}
	return score
}

func (s *trustService) Recompute(ctx context.Context, userID, txID string, outcome domain.TransactionStatus) (int64, error) {
	completed, disputed, err := s.trust.CountOutcomes(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting outcomes for %s: %w", userID, err)
	}
	score := computeScore(completed, disputed)

	for attempt := 0; ; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return 0, domain.NewError(domain.ErrNotFound, "user %s not found", userID)
		}
		if err != nil {
			return 0, fmt.Errorf("fetching user %s: %w", userID, err)
		}
		err = s.users.UpdateTrustScore(ctx, user.ID, score, user.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrStale) {
			return 0, fmt.Errorf("updating trust score for %s: %w", userID, err)
		}
		if attempt+1 >= trustUpdateRetries {
			return 0, fmt.Errorf("updating trust score for %s: %w", userID, err)
		}
	}

	entry := &domain.TrustScoreEntry{
		UserID:  userID,
		TxID:    txID,
		Outcome: outcome,
		Score:   score,
	}
	if err := s.trust.CreateEntry(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "failed to record trust score entry", "user_id", userID, "error", err)
	}

	logger.InfoContext(ctx, "trust score recomputed",
		"user_id", userID, "score", score, "completed", completed, "disputed", disputed)
	return score, nil
}

func (s *trustService) GetUserTrustScore(ctx context.Context, userID string) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, domain.NewError(domain.ErrNotFound, "user %s not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	return user.TrustScore, nil
}

func (s *trustService) History(ctx context.Context, userID string, page, pageSize int64) ([]domain.TrustScoreEntry, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.trust.ListByUser(ctx, userID, page, pageSize)
}

// OnStatusChange recomputes both parties' scores when a transaction reaches
// an outcome that feeds the formula.
func (s *trustService) OnStatusChange(ctx context.Context, change *domain.StatusChange) error {
	if change.NewStatus != domain.StatusCompleted && change.NewStatus != domain.StatusDisputed {
		return nil
	}
	tx, err := fetchTransaction(ctx, s.txs, change.TxID)
	if err != nil {
		return err
	}
	_, renterErr := s.Recompute(ctx, tx.RenterID, tx.ID, change.NewStatus)
	_, ownerErr := s.Recompute(ctx, tx.OwnerID, tx.ID, change.NewStatus)
	return errors.Join(renterErr, ownerErr)
}
