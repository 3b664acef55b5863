package repositories

import (
	"context"

	"github.com/megamart/order-payment-service/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	Payments() PaymentRepository
	OrderTracking() OrderTrackingRepository
	ProcessingLocations() ProcessingLocationRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID int64
	Status domain.OrderStatus
	Page   int
	Size   int
}

// OrderRepository persists order aggregates including their owned items.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	// Update enforces optimistic concurrency: the stored version must match
	// order.Version or a conflict error is returned.
	Update(ctx context.Context, order domain.Order) (domain.Order, error)
	Delete(ctx context.Context, orderID int64) error
	FindByID(ctx context.Context, orderID int64) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.Page[domain.Order], error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error)
}

// PaymentRepository persists payment records, at most one per order.
type PaymentRepository interface {
	Insert(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	Update(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	FindByID(ctx context.Context, paymentID int64) (domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (domain.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (domain.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error)
	DeleteByOrder(ctx context.Context, orderID int64) error
}

// OrderTrackingRepository appends and reads immutable tracking history rows.
type OrderTrackingRepository interface {
	Append(ctx context.Context, entry domain.OrderTracking) (domain.OrderTracking, error)
	ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderTracking, error)
	DeleteByOrder(ctx context.Context, orderID int64) error
}

// ProcessingLocationRepository reads the seeded fulfilment locations.
type ProcessingLocationRepository interface {
	FindByID(ctx context.Context, locationID int64) (domain.ProcessingLocation, error)
	ListActive(ctx context.Context) ([]domain.ProcessingLocation, error)
}
