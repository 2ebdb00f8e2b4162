package domain

import "time"

// ProofParty identifies who captured a handover proof.
type ProofParty string

const (
	ProofPartyOwner  ProofParty = "OWNER"
	ProofPartyRenter ProofParty = "RENTER"
)

// HandoverPhase distinguishes the pickup handover from the mirrored return.
type HandoverPhase string

const (
	PhasePickup HandoverPhase = "PICKUP"
	PhaseReturn HandoverPhase = "RETURN"
)

// ReleasingParty returns who must record proof first in a phase: the party
// giving up custody. Pickup releases owner→renter, return renter→owner.
func ReleasingParty(phase HandoverPhase) ProofParty {
	if phase == PhaseReturn {
		return ProofPartyRenter
	}
	return ProofPartyOwner
}

// ReceivingParty is the counterpart of ReleasingParty.
func ReceivingParty(phase HandoverPhase) ProofParty {
	if phase == PhaseReturn {
		return ProofPartyOwner
	}
	return ProofPartyRenter
}

// Proof is an immutable evidentiary record. MediaRef is an opaque handle
// into the media store; the engine never interprets it.
type Proof struct {
	ID         string        `json:"id"`
	TxID       string        `json:"tx_id"`
	Phase      HandoverPhase `json:"phase"`
	CapturedBy ProofParty    `json:"captured_by"`
	MediaRef   string        `json:"media_ref"`
	CreatedOn  time.Time     `json:"created_on"`
}

// Checklist holds the boolean condition answers for one handover phase.
type Checklist map[string]bool

// RequiredConditions lists the checklist keys that must all be answered
// (and true) before a handover phase may complete.
func RequiredConditions(phase HandoverPhase) []string {
	if phase == PhaseReturn {
		return []string{"item_returned", "condition_acceptable", "accessories_complete"}
	}
	return []string{"item_matches_listing", "condition_as_described", "accessories_complete"}
}

// Complete reports whether every required condition is present and true.
func (c Checklist) Complete(phase HandoverPhase) bool {
	for _, key := range RequiredConditions(phase) {
		if !c[key] {
			return false
		}
	}
	return true
}
