package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusConfirmed, OrderStatusConfirmed, false},
		{OrderStatusShipped, OrderStatusShipped, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAllowedTransitionsLabel(t *testing.T) {
	if got := AllowedTransitionsLabel(OrderStatusPending); got != "CONFIRMED, CANCELLED" {
		t.Fatalf("pending label = %q", got)
	}
	if got := AllowedTransitionsLabel(OrderStatusShipped); got != "DELIVERED" {
		t.Fatalf("shipped label = %q", got)
	}
	if got := AllowedTransitionsLabel(OrderStatusDelivered); got != "None (Final state)" {
		t.Fatalf("delivered label = %q", got)
	}
	if got := AllowedTransitionsLabel(OrderStatusCancelled); got != "None (Final state)" {
		t.Fatalf("cancelled label = %q", got)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = false", s)
		}
	}
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped} {
		if IsTerminal(s) {
			t.Errorf("IsTerminal(%s) = true", s)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	if got, ok := ParseOrderStatus("  shipped "); !ok || got != OrderStatusShipped {
		t.Fatalf("ParseOrderStatus(shipped) = %q, %v", got, ok)
	}
	if _, ok := ParseOrderStatus("RETURNED"); ok {
		t.Fatal("ParseOrderStatus(RETURNED) accepted")
	}
}

func TestParsePaymentType(t *testing.T) {
	if got, ok := ParsePaymentType("upi"); !ok || got != PaymentTypeUPI {
		t.Fatalf("ParsePaymentType(upi) = %q, %v", got, ok)
	}
	if _, ok := ParsePaymentType("WALLET"); ok {
		t.Fatal("ParsePaymentType(WALLET) accepted")
	}
}
