package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/megamart/order-payment-service/internal/domain"
)

// fixedSource always yields the same value so outcomes are deterministic.
type fixedSource struct {
	value int64
}

func (s fixedSource) Int63() int64 { return s.value }
func (s fixedSource) Seed(int64)   {}

func TestAuthorizeCODAlwaysSucceeds(t *testing.T) {
	sim := NewSimulator(WithProcessingDelay(0), WithRandSource(fixedSource{value: 1<<62 + 1<<61}))
	for i := 0; i < 10; i++ {
		auth, err := sim.Authorize(context.Background(), domain.PaymentTypeCOD)
		if err != nil {
			t.Fatalf("authorize: %v", err)
		}
		if !auth.Approved {
			t.Fatal("COD authorization declined")
		}
	}
}

func TestAuthorizeDeclinesOnHighRoll(t *testing.T) {
	// A roll near 1.0 is above both the UPI and CARD thresholds. The source
	// value must stay below 1<<63 after float64 rounding, otherwise
	// rand.Float64 retries forever.
	sim := NewSimulator(WithProcessingDelay(0), WithRandSource(fixedSource{value: 1<<63 - 1<<10}))

	auth, err := sim.Authorize(context.Background(), domain.PaymentTypeUPI)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if auth.Approved {
		t.Fatal("expected UPI decline")
	}

	auth, err = sim.Authorize(context.Background(), domain.PaymentTypeCard)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if auth.Approved {
		t.Fatal("expected CARD decline")
	}
}

func TestAuthorizeSucceedsOnLowRoll(t *testing.T) {
	sim := NewSimulator(WithProcessingDelay(0), WithRandSource(fixedSource{value: 0}))

	for _, pt := range []domain.PaymentType{domain.PaymentTypeUPI, domain.PaymentTypeCard} {
		auth, err := sim.Authorize(context.Background(), pt)
		if err != nil {
			t.Fatalf("authorize %s: %v", pt, err)
		}
		if !auth.Approved {
			t.Fatalf("expected %s authorization", pt)
		}
	}
}

func TestAuthorizeUnknownTypeSucceeds(t *testing.T) {
	sim := NewSimulator(WithProcessingDelay(0))
	auth, err := sim.Authorize(context.Background(), domain.PaymentType("WALLET"))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !auth.Approved {
		t.Fatal("unknown type should succeed by default")
	}
}

func TestAuthorizeAssignsProviderReference(t *testing.T) {
	sim := NewSimulator(WithProcessingDelay(0))

	first, err := sim.Authorize(context.Background(), domain.PaymentTypeCard)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if !strings.HasPrefix(first.Reference, "pay_") {
		t.Fatalf("reference = %q, want pay_ prefix", first.Reference)
	}

	second, err := sim.Authorize(context.Background(), domain.PaymentTypeCard)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if first.Reference == second.Reference {
		t.Fatal("provider references must be unique per exchange")
	}
}

func TestAuthorizeCancellableDelay(t *testing.T) {
	sim := NewSimulator(WithProcessingDelay(5 * time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := sim.Authorize(ctx, domain.PaymentTypeCard)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("authorize did not honour the context deadline")
	}
}
