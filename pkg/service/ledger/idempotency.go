package ledger

import (
	"golang.org/x/sync/singleflight"
)

// IdempotencyTracker collapses concurrent in-process calls that carry the
// same idempotency key. Waiters observe the result of the call in flight,
// success or failure, instead of racing it to the store.
type IdempotencyTracker struct {
	inflight singleflight.Group
}

// NewIdempotencyTracker creates a new idempotency tracker
func NewIdempotencyTracker() *IdempotencyTracker {
	return &IdempotencyTracker{}
}

// Do runs fn once per key among concurrent callers.
func (t *IdempotencyTracker) Do(key string, fn func() (Receipt, error)) (Receipt, error) {
	v, err, _ := t.inflight.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return Receipt{}, err
	}
	return v.(Receipt), nil
}
