package memory

import (
	"context"
	"sort"

	"github.com/megamart/order-payment-service/internal/domain"
)

type locationRepository struct {
	store *Store
}

func (r *locationRepository) FindByID(ctx context.Context, locationID int64) (domain.ProcessingLocation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	loc, ok := r.store.locations[locationID]
	if !ok {
		return domain.ProcessingLocation{}, notFoundError("location.find", "processing location %d not found", locationID)
	}
	return loc, nil
}

func (r *locationRepository) ListActive(ctx context.Context) ([]domain.ProcessingLocation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.ProcessingLocation
	for _, loc := range r.store.locations {
		if loc.Active {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
