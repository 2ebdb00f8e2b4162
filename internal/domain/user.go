package domain

import "time"

type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "PENDING"
	KYCStatusVerified KYCStatus = "VERIFIED"
	KYCStatusRejected KYCStatus = "REJECTED"
)

const (
	TrustScoreMin = 0
	TrustScoreMax = 100
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	// TrustScore is mutated only by the trust aggregator, bounded [0,100].
	TrustScore int64     `json:"trust_score"`
	KYCStatus  KYCStatus `json:"kyc_status"`
	Version    int64     `json:"-"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// TrustScoreEntry records one recomputation for audit and history queries.
type TrustScoreEntry struct {
	ID        int64             `json:"id"`
	UserID    string            `json:"user_id"`
	TxID      string            `json:"tx_id"`
	Outcome   TransactionStatus `json:"outcome"`
	Score     int64             `json:"score"`
	CreatedOn time.Time         `json:"created_on"`
}
