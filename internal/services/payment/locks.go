package payment

import (
	"sync"

	"github.com/tmcgann/paymentsense-service/internal/domain"
)

// lockRegistry serialises operations per order and operation kind within
// this process. A capture and a refund for the same order may proceed
// concurrently; two captures may not. Duplicate deliveries from outside
// the process are still absorbed by the gateway's duplicate status.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[lockKey]*entry
}

type lockKey struct {
	orderID string
	op      domain.OperationKind
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[lockKey]*entry)}
}

// acquire blocks until the order+operation lock is held and returns the
// release function. Entries are reference counted so the map does not grow
// with order history.
func (r *lockRegistry) acquire(orderID string, op domain.OperationKind) func() {
	key := lockKey{orderID: orderID, op: op}

	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{}
		r.locks[key] = e
	}
	e.refs++
	r.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		r.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}
}
