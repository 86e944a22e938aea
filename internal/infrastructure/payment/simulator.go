// Package payment holds the settlement simulator standing in for a gateway.
package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	dompay "github.com/Zhima-Mochi/minishop-fulfillment/app/internal/domain/payment"
)

// DefaultSuccessRate is the probability that a settlement is accepted.
const DefaultSuccessRate = 0.8

// Simulator accepts a settlement with a fixed probability. Each call draws
// independently; the generator is seedable so aggregate behaviour can be
// reproduced in tests.
type Simulator struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
}

var _ dompay.Processor = (*Simulator)(nil)

// NewSimulator builds a simulator. A zero seed seeds from the clock.
func NewSimulator(successRate float64, seed int64) (*Simulator, error) {
	if !(successRate >= 0 && successRate <= 1) {
		return nil, fmt.Errorf("payment: success rate %v outside [0,1]", successRate)
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		random:      rand.New(rand.NewSource(seed)),
		successRate: successRate,
	}, nil
}

func (s *Simulator) Decide(ctx context.Context, _ string) (dompay.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.random.Float64() < s.successRate {
		return dompay.OutcomeSuccess, nil
	}
	return dompay.OutcomeFailure, nil
}

func (s *Simulator) SuccessRate() float64 { return s.successRate }
