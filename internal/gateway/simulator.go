// Package gateway simulates an external payment gateway. It stands in for a
// real acquirer integration and is deliberately probabilistic so failure
// handling stays exercised end to end.
package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/megamart/order-payment-service/internal/domain"
)

const defaultProcessingDelay = 2 * time.Second

// Simulator authorises charges with a fixed simulated latency. COD always
// succeeds; UPI succeeds with probability 0.9, CARD with 0.95; unrecognised
// types succeed. The delay is cancellable through the caller's context.
type Simulator struct {
	delay time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

// SimulatorOption customises the Simulator.
type SimulatorOption func(*Simulator)

// WithProcessingDelay overrides the simulated gateway latency.
func WithProcessingDelay(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithRandSource overrides the randomness source, used in tests to force
// deterministic outcomes.
func WithRandSource(src rand.Source) SimulatorOption {
	return func(s *Simulator) {
		if src != nil {
			s.rand = rand.New(src)
		}
	}
}

// NewSimulator constructs a Simulator with production defaults.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		delay: defaultProcessingDelay,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Authorization is the outcome of a single gateway exchange. Reference is the
// provider-side identifier assigned whether or not the charge was approved.
type Authorization struct {
	Approved  bool
	Reference string
}

// Authorize runs one simulated gateway exchange. A declined charge is a valid
// authorization with Approved false; an error is returned only when the
// caller's context expires before the simulated latency elapses.
func (s *Simulator) Authorize(ctx context.Context, paymentType domain.PaymentType) (Authorization, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Authorization{}, ctx.Err()
		case <-timer.C:
		}
	}

	auth := Authorization{Reference: s.reference()}
	switch paymentType {
	case domain.PaymentTypeCOD:
		auth.Approved = true
	case domain.PaymentTypeUPI:
		auth.Approved = s.roll() < 0.90
	case domain.PaymentTypeCard:
		auth.Approved = s.roll() < 0.95
	default:
		auth.Approved = true
	}
	return auth, nil
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

func (s *Simulator) reference() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "pay_" + ulid.MustNew(ulid.Timestamp(time.Now()), s.rand).String()
}
