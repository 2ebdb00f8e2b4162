package domain

import "time"

type TransactionStatus string

const (
	StatusRequested          TransactionStatus = "REQUESTED"
	StatusEscrowHeld         TransactionStatus = "ESCROW_HELD"
	StatusHandoverInProgress TransactionStatus = "HANDOVER_IN_PROGRESS"
	StatusActive             TransactionStatus = "ACTIVE"
	StatusReturnInProgress   TransactionStatus = "RETURN_IN_PROGRESS"
	StatusCompleted          TransactionStatus = "COMPLETED"
	StatusCancelled          TransactionStatus = "CANCELLED"
	StatusDisputed           TransactionStatus = "DISPUTED"
)

// Terminal reports whether no further transition may leave the status.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusDisputed:
		return true
	}
	return false
}

// TransitionEvent names a cause of a status change. Statuses never change
// except through the ledger's transition table below.
type TransitionEvent string

const (
	EventEscrowHeld        TransitionEvent = "ESCROW_HELD"
	EventHandoverStarted   TransitionEvent = "HANDOVER_STARTED"
	EventHandoverCompleted TransitionEvent = "HANDOVER_COMPLETED"
	EventReturnStarted     TransitionEvent = "RETURN_STARTED"
	EventReturnCompleted   TransitionEvent = "RETURN_COMPLETED"
	EventCancelled         TransitionEvent = "CANCELLED"
	EventDisputed          TransitionEvent = "DISPUTED"
)

// transitions is the closed transition table. CANCELLED is reachable only
// before any handover begins; DISPUTED from every non-terminal status.
var transitions = map[TransactionStatus]map[TransitionEvent]TransactionStatus{
	StatusRequested: {
		EventEscrowHeld: StatusEscrowHeld,
		EventCancelled:  StatusCancelled,
		EventDisputed:   StatusDisputed,
	},
	StatusEscrowHeld: {
		EventHandoverStarted: StatusHandoverInProgress,
		EventCancelled:       StatusCancelled,
		EventDisputed:        StatusDisputed,
	},
	StatusHandoverInProgress: {
		EventHandoverCompleted: StatusActive,
		EventDisputed:          StatusDisputed,
	},
	StatusActive: {
		EventReturnStarted: StatusReturnInProgress,
		EventDisputed:      StatusDisputed,
	},
	StatusReturnInProgress: {
		EventReturnCompleted: StatusCompleted,
		EventDisputed:        StatusDisputed,
	},
}

// NextStatus resolves the transition table. ok is false when the event is
// not legal from the given status.
func NextStatus(from TransactionStatus, event TransitionEvent) (TransactionStatus, bool) {
	row, ok := transitions[from]
	if !ok {
		return "", false
	}
	to, ok := row[event]
	return to, ok
}

type EscrowState string

const (
	EscrowStateNone     EscrowState = "NONE"
	EscrowStateHeld     EscrowState = "HELD"
	EscrowStateReleased EscrowState = "RELEASED"
	EscrowStateRefunded EscrowState = "REFUNDED"
)

type Transaction struct {
	ID       string `json:"id"`
	ItemID   string `json:"item_id"`
	RenterID string `json:"renter_id"`
	OwnerID  string `json:"owner_id"`
	// Rental period, yyyy-mm-dd. End date exclusive: a 2-day rental runs
	// start..start+2.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Price snapshot fields, captured at request time. All escrow checks use
	// these snapshots, not live item prices.
	RentalFeeCents    int64             `json:"rental_fee_cents"`
	InsuranceFeeCents int64             `json:"insurance_fee_cents"`
	TrustBonusCents   int64             `json:"trust_bonus_cents"`
	TotalCents        int64             `json:"total_cents"`
	Status            TransactionStatus `json:"status"`
	EscrowState       EscrowState       `json:"escrow_state"`
	HoldRef           *string           `json:"-"`
	DisputeReason     string            `json:"dispute_reason,omitempty"`
	// Version guards every mutation; see repository.TransactionRepository.
	Version   int64     `json:"version"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
