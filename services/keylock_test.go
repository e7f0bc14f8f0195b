package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := NewKeyLock()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locks.Lock(context.Background(), "customer:1", "transaction:1")
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxSeen)
	}
	if len(locks.locks) != 0 {
		t.Fatalf("expected all entries released, got %d", len(locks.locks))
	}
}

func TestKeyLock_DifferentKeysDoNotBlock(t *testing.T) {
	locks := NewKeyLock()
	unlockA, err := locks.Lock(context.Background(), "customer:1")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := locks.Lock(ctx, "customer:2")
	if err != nil {
		t.Fatalf("independent key blocked: %v", err)
	}
	unlockB()
}

func TestKeyLock_ContextCancel(t *testing.T) {
	locks := NewKeyLock()
	unlock, err := locks.Lock(context.Background(), "order:1")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, "order:0", "order:1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// the partially acquired order:0 must have been released
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	unlock0, err := locks.Lock(ctx2, "order:0")
	if err != nil {
		t.Fatalf("order:0 still held: %v", err)
	}
	unlock0()

	unlock()
	unlock() // second call is a no-op
	if len(locks.locks) != 0 {
		t.Fatalf("expected all entries released, got %d", len(locks.locks))
	}
}

func TestKeyLock_DuplicateKeys(t *testing.T) {
	locks := NewKeyLock()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock, err := locks.Lock(ctx, "customer:1", "customer:1")
	if err != nil {
		t.Fatalf("duplicate keys deadlocked: %v", err)
	}
	unlock()
}
