package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// KeyLock hands out mutual exclusion per string key. Keys are always taken
// in sorted order so callers locking several keys cannot deadlock.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

type keyEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyEntry)}
}

// Lock blocks until every key is held or ctx is done
func (k *KeyLock) Lock(ctx context.Context, keys ...string) (unlock func(), err error) {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.release(held[i])
		}
	}

	for _, key := range keys {
		e := k.ref(key)
		select {
		case e.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			k.unref(key)
			release()
			return nil, fmt.Errorf("waiting for lock %s: %w", key, ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (k *KeyLock) ref(key string) *keyEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *KeyLock) unref(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.drop(key)
}

func (k *KeyLock) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	<-k.locks[key].ch
	k.drop(key)
}

func (k *KeyLock) drop(key string) {
	e := k.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func customerKey(id uint) string    { return fmt.Sprintf("customer:%d", id) }
func transactionKey(id uint) string { return fmt.Sprintf("transaction:%d", id) }
func orderKey(id uint) string       { return fmt.Sprintf("order:%d", id) }
func vendorKey(id uint) string      { return fmt.Sprintf("vendor:%d", id) }
func courierKey(id uint) string     { return fmt.Sprintf("courier:%d", id) }
