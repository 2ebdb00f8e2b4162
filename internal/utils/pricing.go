package utils

import (
	"fmt"
	"time"

	"aroundu-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// Quote is the price breakdown snapshotted onto a transaction at request
// time. All escrow amount checks compare against these numbers, never
// against live item prices.
type Quote struct {
	Days              int64
	RentalFeeCents    int64
	InsuranceFeeCents int64
	TrustBonusCents   int64
	TotalCents        int64
}

// RentalDays computes the billable day count for a yyyy-mm-dd date pair.
// The end date is exclusive, so end must be strictly after start.
func RentalDays(startDate, endDate string) (int64, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 0, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return 0, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	days := int64(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return 0, fmt.Errorf("end date must be after start date")
	}
	return days, nil
}

// BuildQuote prices a rental: days * pricePerDay + insurance − trust bonus.
// trustBonusCents is zero when the renter does not qualify.
func BuildQuote(item *domain.Item, days, trustBonusCents int64) Quote {
	rental := days * item.PricePerDayCents
	total := rental + item.InsuranceFeeCents - trustBonusCents
	if total < 0 {
		total = 0
	}
	return Quote{
		Days:              days,
		RentalFeeCents:    rental,
		InsuranceFeeCents: item.InsuranceFeeCents,
		TrustBonusCents:   trustBonusCents,
		TotalCents:        total,
	}
}
