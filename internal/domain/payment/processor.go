package payment

import "context"

// Outcome is the result of a settlement decision.
type Outcome string

const (
	OutcomeSuccess Outcome = "Success"
	OutcomeFailure Outcome = "Failure"
)

func (o Outcome) Valid() bool {
	return o == OutcomeSuccess || o == OutcomeFailure
}

// Processor decides a settlement outcome for an order.
type Processor interface {
	Decide(ctx context.Context, orderID string) (Outcome, error)
}
