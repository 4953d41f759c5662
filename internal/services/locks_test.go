package services

import (
	"sync"
	"testing"
)

func TestKeyedMutex_Serializes(t *testing.T) {
	km := newKeyedMutex()
	var a, b, c int
	counts := map[string]*int{"user:a": &a, "user:b": &b, "order:1": &c}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		for key, n := range counts {
			wg.Add(1)
			go func(key string, n *int) {
				defer wg.Done()
				unlock := km.Lock(key)
				defer unlock()
				*n++ // safe only if the key lock holds
			}(key, n)
		}
	}
	wg.Wait()

	for key, n := range counts {
		if *n != 50 {
			t.Fatalf("counts[%s] = %d, want 50", key, *n)
		}
	}
}

func TestKeyedMutex_EvictsIdleKeys(t *testing.T) {
	km := newKeyedMutex()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := km.Lock("product:" + string(rune('a'+i%5)))
			unlock()
		}(i)
	}
	wg.Wait()

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.m) != 0 {
		t.Fatalf("len(m) = %d after all unlocks, want 0", len(km.m))
	}
}
