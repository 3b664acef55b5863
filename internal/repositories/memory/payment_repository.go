package memory

import (
	"context"
	"sort"

	"github.com/megamart/order-payment-service/internal/domain"
)

type paymentRepository struct {
	store *Store
}

func (r *paymentRepository) Insert(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.payments {
		if existing.OrderID == payment.OrderID {
			return domain.Payment{}, conflictError("payment.insert", "order %d already has payment %d", payment.OrderID, existing.ID)
		}
	}
	payment.ID = r.store.nextPaymentID
	r.store.nextPaymentID++
	r.store.payments[payment.ID] = payment
	return payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.payments[payment.ID]; !ok {
		return domain.Payment{}, notFoundError("payment.update", "payment %d not found", payment.ID)
	}
	r.store.payments[payment.ID] = payment
	return payment, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, paymentID int64) (domain.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	payment, ok := r.store.payments[paymentID]
	if !ok {
		return domain.Payment{}, notFoundError("payment.find", "payment %d not found", paymentID)
	}
	return payment, nil
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID int64) (domain.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, payment := range r.store.payments {
		if payment.OrderID == orderID {
			return payment, nil
		}
	}
	return domain.Payment{}, notFoundError("payment.find", "no payment for order %d", orderID)
}

func (r *paymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (domain.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, payment := range r.store.payments {
		if payment.TransactionID == transactionID {
			return payment, nil
		}
	}
	return domain.Payment{}, notFoundError("payment.find", "no payment with transaction %s", transactionID)
}

func (r *paymentRepository) DeleteByOrder(ctx context.Context, orderID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, payment := range r.store.payments {
		if payment.OrderID == orderID {
			delete(r.store.payments, id)
		}
	}
	return nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Payment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []domain.Payment
	for _, payment := range r.store.payments {
		if payment.UserID == userID {
			out = append(out, payment)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PaymentDate.Equal(out[j].PaymentDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].PaymentDate.After(out[j].PaymentDate)
	})
	return out, nil
}
