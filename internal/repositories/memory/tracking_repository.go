package memory

import (
	"context"

	"github.com/megamart/order-payment-service/internal/domain"
)

type trackingRepository struct {
	store *Store
}

func (r *trackingRepository) Append(ctx context.Context, entry domain.OrderTracking) (domain.OrderTracking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	entry.ID = r.store.nextTrackingID
	r.store.nextTrackingID++
	r.store.tracking[entry.OrderID] = append(r.store.tracking[entry.OrderID], entry)
	return entry, nil
}

func (r *trackingRepository) ListByOrder(ctx context.Context, orderID int64) ([]domain.OrderTracking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := r.store.tracking[orderID]
	out := make([]domain.OrderTracking, len(entries))
	copy(out, entries)
	return out, nil
}

func (r *trackingRepository) DeleteByOrder(ctx context.Context, orderID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.tracking, orderID)
	return nil
}
