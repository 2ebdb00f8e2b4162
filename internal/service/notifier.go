package service

import (
	"context"
	"errors"
	"fmt"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
	"aroundu-backend/internal/repository"
)

// statusNotifier emails both parties on the transitions they care about.
// Runs as an event subscriber; duplicate emails on redelivery are accepted.
type statusNotifier struct {
	txs   repository.TransactionRepository
	users repository.UserRepository
	items repository.ItemRepository
	email EmailService
}

// NewStatusNotifier wires transition emails into the dispatcher.
func NewStatusNotifier(
	txs repository.TransactionRepository,
	users repository.UserRepository,
	items repository.ItemRepository,
	email EmailService,
	dispatcher *EventDispatcher,
) StatusChangeSubscriber {
	n := &statusNotifier{txs: txs, users: users, items: items, email: email}
	dispatcher.Subscribe(n)
	return n
}

func (n *statusNotifier) OnStatusChange(ctx context.Context, change *domain.StatusChange) error {
	switch change.NewStatus {
	case domain.StatusEscrowHeld, domain.StatusActive, domain.StatusCompleted,
		domain.StatusCancelled, domain.StatusDisputed:
	default:
		return nil
	}

	tx, err := fetchTransaction(ctx, n.txs, change.TxID)
	if err != nil {
		return err
	}
	item, err := n.items.GetByID(ctx, tx.ItemID)
	if err != nil {
		return fmt.Errorf("fetching item %s: %w", tx.ItemID, err)
	}

	var errs []error
	for _, userID := range []string{tx.RenterID, tx.OwnerID} {
		user, err := n.users.GetByID(ctx, userID)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetching user %s: %w", userID, err))
			continue
		}
		if change.NewStatus == domain.StatusDisputed {
			err = n.email.SendDisputeNotification(ctx, user.Email, user.Name, item.Title, tx.DisputeReason)
		} else {
			err = n.email.SendStatusNotification(ctx, user.Email, user.Name, item.Title, change.NewStatus)
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to send status email",
				"tx_id", tx.ID, "user_id", userID, "status", change.NewStatus, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
