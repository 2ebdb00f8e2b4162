package domain

import "time"

type EscrowEntryType string

const (
	EscrowEntryHold    EscrowEntryType = "HOLD"
	EscrowEntryRelease EscrowEntryType = "RELEASE"
	EscrowEntryRefund  EscrowEntryType = "REFUND"
)

// EscrowEntry is one row of the escrow audit ledger. HoldRef is the payment
// gateway's opaque handle for the held funds.
type EscrowEntry struct {
	ID          int64           `json:"id"`
	TxID        string          `json:"tx_id"`
	Type        EscrowEntryType `json:"type"`
	AmountCents int64           `json:"amount_cents"`
	HoldRef     string          `json:"hold_ref"`
	Reason      string          `json:"reason,omitempty"`
	CreatedOn   time.Time       `json:"created_on"`
}
