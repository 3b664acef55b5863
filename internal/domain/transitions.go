package domain

import "strings"

// orderTransitions is the authoritative single source for which lifecycle
// moves an order may make. DELIVERED and CANCELLED are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from the given one.
func AllowedTransitions(from OrderStatus) []OrderStatus {
	next := orderTransitions[from]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// AllowedTransitionsLabel renders the reachable statuses for error messages,
// or "None (Final state)" for terminal statuses.
func AllowedTransitionsLabel(from OrderStatus) string {
	next := orderTransitions[from]
	if len(next) == 0 {
		return "None (Final state)"
	}
	parts := make([]string, len(next))
	for i, s := range next {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// IsTerminal reports whether the status admits no further transitions.
func IsTerminal(s OrderStatus) bool {
	return len(orderTransitions[s]) == 0
}

// Cancellable reports whether an order in this status may still be cancelled.
func Cancellable(s OrderStatus) bool {
	return CanTransition(s, OrderStatusCancelled)
}

// ParseOrderStatus normalises and validates a raw status string.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusConfirmed:
		return OrderStatusConfirmed, true
	case OrderStatusProcessing:
		return OrderStatusProcessing, true
	case OrderStatusShipped:
		return OrderStatusShipped, true
	case OrderStatusDelivered:
		return OrderStatusDelivered, true
	case OrderStatusCancelled:
		return OrderStatusCancelled, true
	default:
		return "", false
	}
}

// ParsePaymentType normalises and validates a raw payment type string.
func ParsePaymentType(raw string) (PaymentType, bool) {
	switch PaymentType(strings.ToUpper(strings.TrimSpace(raw))) {
	case PaymentTypeCard:
		return PaymentTypeCard, true
	case PaymentTypeUPI:
		return PaymentTypeUPI, true
	case PaymentTypeCOD:
		return PaymentTypeCOD, true
	default:
		return "", false
	}
}
