package memory

import (
	"context"
	"sort"

	"github.com/megamart/order-payment-service/internal/domain"
	"github.com/megamart/order-payment-service/internal/repositories"
)

type orderRepository struct {
	store *Store
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	order.ID = r.store.nextOrderID
	r.store.nextOrderID++
	for i := range order.Items {
		order.Items[i].ID = r.store.nextItemID
		r.store.nextItemID++
	}
	order.Version = 1
	r.store.orders[order.ID] = cloneOrder(order)
	return order, nil
}

func (r *orderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.orders[order.ID]
	if !ok {
		return domain.Order{}, notFoundError("order.update", "order %d not found", order.ID)
	}
	if current.Version != order.Version {
		return domain.Order{}, conflictError("order.update", "order %d version %d is stale (stored %d)", order.ID, order.Version, current.Version)
	}
	order.Version++
	r.store.orders[order.ID] = cloneOrder(order)
	return order, nil
}

func (r *orderRepository) Delete(ctx context.Context, orderID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.orders[orderID]; !ok {
		return notFoundError("order.delete", "order %d not found", orderID)
	}
	delete(r.store.orders, orderID)
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, orderID int64) (domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundError("order.find", "order %d not found", orderID)
	}
	return cloneOrder(order), nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.Order
	for _, order := range r.store.orders {
		if order.UserID == userID {
			out = append(out, cloneOrder(order))
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (r *orderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.Page[domain.Order], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []domain.Order
	for _, order := range r.store.orders {
		if filter.UserID != 0 && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	sortOrdersNewestFirst(matched)

	page := filter.Page
	if page < 0 {
		page = 0
	}
	size := filter.Size
	if size <= 0 {
		size = 10
	}

	total := int64(len(matched))
	totalPages := int((total + int64(size) - 1) / int64(size))
	start := page * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	return domain.Page[domain.Order]{
		Items:         matched[start:end],
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := make(map[domain.OrderStatus]int64)
	for _, order := range r.store.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
}

func cloneOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}
