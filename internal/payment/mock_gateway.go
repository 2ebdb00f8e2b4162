package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"aroundu-backend/internal/logger"
)

// MockGateway is an in-process gateway for development and tests. Holds live
// only in memory; a real deployment swaps in a processor-backed
// implementation behind the same interface.
type MockGateway struct {
	mu    sync.Mutex
	holds map[string]mockHold
}

type mockHold struct {
	amountCents int64
	payerID     string
	settled     bool
}

func NewMockGateway() *MockGateway {
	return &MockGateway{holds: make(map[string]mockHold)}
}

func (g *MockGateway) Hold(ctx context.Context, amountCents int64, payerID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amountCents <= 0 {
		return "", fmt.Errorf("hold amount must be positive, got %d", amountCents)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	holdRef := "hold_" + uuid.New().String()
	g.holds[holdRef] = mockHold{amountCents: amountCents, payerID: payerID}
	logger.ExternalServiceCall("payment-gateway", "hold", "hold_ref", holdRef, "amount_cents", amountCents)
	return holdRef, nil
}

func (g *MockGateway) Capture(ctx context.Context, holdRef string) error {
	return g.settle(ctx, holdRef, "capture")
}

func (g *MockGateway) Refund(ctx context.Context, holdRef string) error {
	return g.settle(ctx, holdRef, "refund")
}

func (g *MockGateway) settle(ctx context.Context, holdRef, operation string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	hold, ok := g.holds[holdRef]
	if !ok {
		return fmt.Errorf("unknown hold reference %s", holdRef)
	}
	if hold.settled {
		return fmt.Errorf("hold %s already settled", holdRef)
	}
	hold.settled = true
	g.holds[holdRef] = hold
	logger.ExternalServiceCall("payment-gateway", operation, "hold_ref", holdRef)
	return nil
}
