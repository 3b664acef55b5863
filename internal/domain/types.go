package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType enumerates the payment instruments accepted at checkout.
type PaymentType string

const (
	PaymentTypeCard PaymentType = "CARD"
	PaymentTypeUPI  PaymentType = "UPI"
	PaymentTypeCOD  PaymentType = "COD"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderPaymentStatus tracks the payment outcome denormalised onto the order.
type OrderPaymentStatus string

const (
	OrderPaymentPending   OrderPaymentStatus = "PENDING"
	OrderPaymentCompleted OrderPaymentStatus = "COMPLETED"
	OrderPaymentFailed    OrderPaymentStatus = "FAILED"
	OrderPaymentRefunded  OrderPaymentStatus = "REFUNDED"
)

// PaymentStatus tracks the state of a payment record. It is a distinct enum
// from OrderPaymentStatus (it additionally models PROCESSING) but the two are
// kept in lockstep by the payment service.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// ShippingSnapshot is the denormalised copy of the shipping address captured on
// the order at creation time. Once set it is authoritative over any
// externally-resolved address so historical orders render correctly even if
// the live address record is edited or deleted.
type ShippingSnapshot struct {
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        string
}

// IsZero reports whether no snapshot was captured.
func (s ShippingSnapshot) IsZero() bool {
	return s == ShippingSnapshot{}
}

// OrderItem is owned exclusively by one order; its lifetime is the order's.
// LineTotal is supplied by the caller, not derived from a live price lookup.
type OrderItem struct {
	ID        int64
	ProductID int64
	Quantity  int
	LineTotal decimal.Decimal
}

// Order is the aggregate root of the order lifecycle.
type Order struct {
	ID                int64
	UserID            int64
	Total             decimal.Decimal
	PaymentType       PaymentType
	Status            OrderStatus
	PaymentStatus     OrderPaymentStatus
	OrderDate         time.Time
	ShippingAddressID int64
	Shipping          ShippingSnapshot
	Items             []OrderItem

	// Version supports optimistic concurrency on order mutation.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is owned by exactly one order (1:0..1) and created lazily on the
// first payment attempt.
type Payment struct {
	ID              int64
	OrderID         int64
	UserID          int64
	Amount          decimal.Decimal
	PaymentMethodID int64
	Status          PaymentStatus
	PaymentDate     time.Time
	TransactionID   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderTracking is an append-only status history row keyed by order id.
// Entries are never updated; they are deleted en masse only with their order.
type OrderTracking struct {
	ID              int64
	OrderID         int64
	Status          string
	Location        string
	Description     string
	ProcessingNotes string
	UpdatedBy       string
	CreatedAt       time.Time
}

// Address is a value object resolved from the user-data provider. It is never
// cached inside the order aggregate except as the shipping snapshot.
type Address struct {
	ID           int64
	FullName     string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Phone        string
	Default      bool
}

// PaymentMethod is a value object resolved from the user-data provider. Card
// numbers are stored masked; the CVV hash is write-only and never leaves the
// store.
type PaymentMethod struct {
	ID             int64
	Type           PaymentType
	CardNumber     string
	CardholderName string
	ExpiryMonth    string
	ExpiryYear     string
	UPIID          string
	Default        bool

	CVVHash string
}

// ProcessingLocation is a warehouse or fulfilment site referenced by tracking
// entries.
type ProcessingLocation struct {
	ID      int64
	Name    string
	Address string
	City    string
	State   string
	Country string
	Active  bool
}

// Page is an offset-paginated result set.
type Page[T any] struct {
	Items         []T
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}
