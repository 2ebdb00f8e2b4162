package jobs

import (
	"context"
	"time"

	"aroundu-backend/internal/logger"
)

// ExpireProximityCodes removes codes past their validity window so a stale
// code can never verify a handover.
func (jr *JobRunner) ExpireProximityCodes() {
	jr.runWithRecovery("ExpireProximityCodes", func() {
		ctx := context.Background()

		removed, err := jr.store.ProximityCodes.DeleteExpired(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to expire proximity codes", "error", err)
			return
		}
		if removed > 0 {
			logger.Info("Expired proximity codes removed", "count", removed)
		}
	})
}

// PurgeExpiredProofs deletes proof media and records older than the
// evidence retention window.
func (jr *JobRunner) PurgeExpiredProofs() {
	jr.runWithRecovery("PurgeExpiredProofs", func() {
		ctx := context.Background()
		cutoff := time.Now().AddDate(0, 0, -jr.config.Media.RetentionDays)

		proofs, err := jr.store.Proofs.ListOlderThan(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to list expired proofs", "error", err)
			return
		}

		purged := 0
		for i := range proofs {
			proof := &proofs[i]

			// Media first: if the blob delete fails the record stays and the
			// next run retries.
			if err := jr.media.Delete(ctx, proof.MediaRef); err != nil {
				logger.Error("Failed to delete proof media",
					"proof_id", proof.ID, "media_ref", proof.MediaRef, "error", err)
				continue
			}
			if err := jr.store.Proofs.Delete(ctx, proof.ID); err != nil {
				logger.Error("Failed to delete proof record", "proof_id", proof.ID, "error", err)
				continue
			}
			purged++
		}

		logger.Info("Purged expired proofs", "count", purged, "cutoff", cutoff.Format("2006-01-02"))
	})
}
