package jobs

import (
	"context"
	"time"

	"aroundu-backend/internal/domain"
	"aroundu-backend/internal/logger"
)

// MarkOverdueRentals nudges rentals that are past their end date but still
// ACTIVE. The status itself does not change: only a completed return
// handover (or a dispute) moves a rental out of ACTIVE. The job re-arms the
// return code if issuance failed earlier and reminds the renter.
func (jr *JobRunner) MarkOverdueRentals() {
	jr.runWithRecovery("MarkOverdueRentals", func() {
		ctx := context.Background()
		today := time.Now().Format("2006-01-02")

		overdue, err := jr.store.Transactions.ListOverdueActive(ctx, today)
		if err != nil {
			logger.Error("Failed to list overdue rentals", "error", err)
			return
		}

		for i := range overdue {
			tx := &overdue[i]

			code, err := jr.services.Verification.IssueCode(ctx, tx.ID, domain.PhaseReturn)
			switch {
			case err == nil:
				holder, herr := jr.store.Users.GetByID(ctx, tx.RenterID)
				if herr != nil {
					logger.Error("Failed to load renter for return code delivery", "tx_id", tx.ID, "error", herr)
					break
				}
				if eerr := jr.services.Email.SendProximityCode(ctx, holder.Email, holder.Name, code, domain.PhaseReturn); eerr != nil {
					logger.Error("Failed to email re-issued return code", "tx_id", tx.ID, "error", eerr)
				}
			case !domain.IsKind(err, domain.ErrAlreadyIssued):
				logger.Error("Failed to re-issue return code", "tx_id", tx.ID, "error", err)
			}

			renter, err := jr.store.Users.GetByID(ctx, tx.RenterID)
			if err != nil {
				logger.Error("Failed to load renter for overdue reminder", "tx_id", tx.ID, "error", err)
				continue
			}
			item, err := jr.store.Items.GetByID(ctx, tx.ItemID)
			if err != nil {
				logger.Error("Failed to load item for overdue reminder", "tx_id", tx.ID, "error", err)
				continue
			}
			if err := jr.services.Email.SendReturnReminder(ctx, renter.Email, renter.Name, item.Title, tx.EndDate); err != nil {
				logger.Error("Failed to send overdue reminder", "tx_id", tx.ID, "error", err)
			}
		}

		logger.Info("Processed overdue rentals", "count", len(overdue))
	})
}
