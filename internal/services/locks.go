package services

import "sync"

// OrderLocks serialises mutations per order id so concurrent cancel/delete
// operations cannot both apply compensating stock deltas. A single instance is
// shared by the order and payment services. Entries are reference counted and
// removed once the last holder unlocks, so the table stays bounded by the
// number of in-flight mutations.
type OrderLocks struct {
	mu    sync.Mutex
	locks map[int64]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrderLocks returns an empty lock table.
func NewOrderLocks() *OrderLocks {
	return &OrderLocks{locks: make(map[int64]*orderLock)}
}

// Lock acquires the mutex for the given order id and returns the unlock
// function.
func (l *OrderLocks) Lock(orderID int64) func() {
	l.mu.Lock()
	entry, ok := l.locks[orderID]
	if !ok {
		entry = &orderLock{}
		l.locks[orderID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, orderID)
		}
		l.mu.Unlock()
	}
}
