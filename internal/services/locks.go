package services

import "sync"

// keyedMutex serializes read-check-write sequences on one logical row
// (a user's credit score, a product's status, an order's status).
// sqlite has no SELECT ... FOR UPDATE; holding the key's mutex for the
// whole transaction is the row-lock equivalent.
type keyedMutex struct {
	mu sync.Mutex
	m  map[string]*keyedLock
}

// keyedLock is reference counted so idle keys are evicted instead of
// accumulating one entry per user/product/order ever touched.
type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex { return &keyedMutex{m: make(map[string]*keyedLock)} }

// Lock blocks until the key's mutex is held and returns its unlock.
// The entry is dropped once the last holder or waiter releases it.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &keyedLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}
