package domain

import "time"

type Item struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	// Money in integer minor units. Deposit is quoted but not charged; escrow
	// holds rental + insurance − trust bonus.
	PricePerDayCents  int64     `json:"price_per_day_cents"`
	DepositCents      int64     `json:"deposit_cents"`
	InsuranceFeeCents int64     `json:"insurance_fee_cents"`
	Location          string    `json:"location"`
	CreatedOn         time.Time `json:"created_on"`
	DeletedOn         *time.Time `json:"deleted_on,omitempty"`
}
