package memory

import (
	"context"
	"sync"

	"github.com/megamart/order-payment-service/internal/domain"
	"github.com/megamart/order-payment-service/internal/repositories"
)

// Store is an in-memory repositories.Registry. All repositories share a single
// mutex so cross-aggregate reads observe a consistent snapshot. It is intended
// for local development and tests; a database-backed registry can be swapped
// in without touching the services.
type Store struct {
	mu sync.RWMutex

	orders    map[int64]domain.Order
	payments  map[int64]domain.Payment
	tracking  map[int64][]domain.OrderTracking
	locations map[int64]domain.ProcessingLocation

	nextOrderID    int64
	nextItemID     int64
	nextPaymentID  int64
	nextTrackingID int64
}

// NewStore returns an empty Store with the default processing locations
// seeded.
func NewStore() *Store {
	s := &Store{
		orders:         make(map[int64]domain.Order),
		payments:       make(map[int64]domain.Payment),
		tracking:       make(map[int64][]domain.OrderTracking),
		locations:      make(map[int64]domain.ProcessingLocation),
		nextOrderID:    1,
		nextItemID:     1,
		nextPaymentID:  1,
		nextTrackingID: 1,
	}
	for _, loc := range seedProcessingLocations() {
		s.locations[loc.ID] = loc
	}
	return s
}

// Close implements repositories.Registry. The in-memory store holds no
// external resources.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Orders returns the order repository.
func (s *Store) Orders() repositories.OrderRepository {
	return &orderRepository{store: s}
}

// Payments returns the payment repository.
func (s *Store) Payments() repositories.PaymentRepository {
	return &paymentRepository{store: s}
}

// OrderTracking returns the tracking repository.
func (s *Store) OrderTracking() repositories.OrderTrackingRepository {
	return &trackingRepository{store: s}
}

// ProcessingLocations returns the processing location repository.
func (s *Store) ProcessingLocations() repositories.ProcessingLocationRepository {
	return &locationRepository{store: s}
}

func seedProcessingLocations() []domain.ProcessingLocation {
	return []domain.ProcessingLocation{
		{ID: 1, Name: "Mumbai Fulfilment Centre", Address: "Plot 14, MIDC Industrial Area", City: "Mumbai", State: "Maharashtra", Country: "India", Active: true},
		{ID: 2, Name: "Delhi NCR Warehouse", Address: "Sector 63, Logistics Park", City: "Noida", State: "Uttar Pradesh", Country: "India", Active: true},
		{ID: 3, Name: "Bengaluru Distribution Hub", Address: "Hosur Road, Electronic City", City: "Bengaluru", State: "Karnataka", Country: "India", Active: true},
	}
}
