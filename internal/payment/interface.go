package payment

import "context"

// Gateway is the external payment collaborator boundary. All amounts are
// integer minor units; holdRef is an opaque token the engine never
// interprets. Every call is a network round-trip and must be made without
// holding any engine lock.
type Gateway interface {
	// Hold places funds in escrow and returns the gateway's hold reference.
	Hold(ctx context.Context, amountCents int64, payerID string) (holdRef string, err error)

	// Capture releases previously held funds to the payee.
	Capture(ctx context.Context, holdRef string) error

	// Refund returns previously held funds to the payer.
	Refund(ctx context.Context, holdRef string) error
}
