package jobs

import (
	"context"

	"aroundu-backend/internal/logger"
)

const redeliverBatchSize = 100

// RedeliverEvents retries status-change events that never reached every
// subscriber. Subscribers are idempotent, so redelivery is safe.
func (jr *JobRunner) RedeliverEvents() {
	jr.runWithRecovery("RedeliverEvents", func() {
		ctx := context.Background()

		pending, err := jr.store.Events.ListUndispatched(ctx, redeliverBatchSize)
		if err != nil {
			logger.Error("Failed to list undispatched events", "error", err)
			return
		}

		for i := range pending {
			jr.dispatcher.Dispatch(ctx, &pending[i])
		}
		if len(pending) > 0 {
			logger.Info("Redelivered status change events", "count", len(pending))
		}
	})
}
