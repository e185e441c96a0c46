package notifier

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	k := newKeyLock()
	unlock, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}

	acquired := make(chan struct{})
	go func() {
		u, err := k.Lock(context.Background(), "a")
		if err != nil {
			t.Error(err)
			return
		}
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-acquired
	unlock()

	// Waiters drain asynchronously; poll briefly.
	deadline := time.Now().Add(time.Second)
	for k.size() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := k.size(); got != 0 {
		t.Errorf("expected empty lock table, got %d", got)
	}
}

func TestKeyLockIndependentKeys(t *testing.T) {
	k := newKeyLock()
	ua, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer ua()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ub, err := k.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("expected distinct key to lock, got %v", err)
	}
	ub()
}

func TestKeyLockContextCancel(t *testing.T) {
	k := newKeyLock()
	unlock, err := k.Lock(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := k.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if got := k.size(); got != 1 {
		t.Errorf("expected waiter to release its reference, got %d entries", got)
	}
}
