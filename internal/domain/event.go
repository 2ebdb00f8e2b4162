package domain

import "time"

// StatusChange is emitted on every ledger transition and persisted for
// at-least-once delivery to external consumers. Consumers must be
// idempotent: a redelivery job resends rows never marked dispatched.
type StatusChange struct {
	ID             int64             `json:"id"`
	TxID           string            `json:"tx_id"`
	PreviousStatus TransactionStatus `json:"previous_status"`
	NewStatus      TransactionStatus `json:"new_status"`
	CreatedOn      time.Time         `json:"timestamp"`
	DispatchedOn   *time.Time        `json:"-"`
}
