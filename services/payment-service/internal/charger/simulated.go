package charger

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Simulated stands in for a bank: it blocks for a configurable delay and
// approves any strictly positive amount. Once a charge is dispatched it
// runs to completion; the delay deliberately ignores ctx cancellation.
type Simulated struct {
	Delay time.Duration
}

func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay}
}

func (s *Simulated) Charge(_ context.Context, req Request) (Result, error) {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
	if req.Amount > 0 {
		return Result{
			Approved:      true,
			TransactionID: "SIM-" + strings.ToUpper(uuid.NewString()[:8]),
		}, nil
	}
	return Result{
		Approved:      false,
		FailureReason: "invalid amount: amount must be greater than 0",
	}, nil
}
