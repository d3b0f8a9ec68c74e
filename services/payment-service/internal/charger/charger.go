// Package charger isolates the charge decision behind an interface so the
// simulated rule can be swapped for a real gateway without touching the
// payment flow.
package charger

import "context"

type Request struct {
	SubscriptionID string
	Amount         float64
	Currency       string
}

// Result is the gateway's verdict. Declined is a business outcome
// (Approved=false with a reason), not an error; errors are reserved for
// the gateway itself being unreachable or misbehaving.
type Result struct {
	Approved      bool
	TransactionID string
	FailureReason string
}

type Charger interface {
	Charge(ctx context.Context, req Request) (Result, error)
}
