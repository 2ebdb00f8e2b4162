package domain

import "time"

// ProximityCode is a single-use numeric code proving both parties are
// physically co-located. Only the bcrypt hash is ever stored; the plaintext
// leaves the engine exactly once, in the response of the issuing operation.
type ProximityCode struct {
	ID        string        `json:"id"`
	TxID      string        `json:"tx_id"`
	Phase     HandoverPhase `json:"phase"`
	CodeHash  string        `json:"-"`
	Attempts  int64         `json:"attempts"`
	Consumed  bool          `json:"consumed"`
	ExpiresOn time.Time     `json:"expires_on"`
	CreatedOn time.Time     `json:"created_on"`
}

// Expired reports whether the code is past its validity window.
func (c *ProximityCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresOn)
}
