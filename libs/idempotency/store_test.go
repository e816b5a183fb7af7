package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreRemember(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	got, seen, err := s.Remember(ctx, "k1", []byte("first"))
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if seen || got != nil {
		t.Fatalf("first sight must not replay, got seen=%v body=%q", seen, got)
	}

	got, seen, err = s.Remember(ctx, "k1", []byte("second"))
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if !seen {
		t.Fatal("repeated key must be reported as seen")
	}
	if string(got) != "first" {
		t.Fatalf("expected the original response, got %q", got)
	}

	_, seen, err = s.Remember(ctx, "k2", []byte("other"))
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if seen {
		t.Fatal("distinct keys must not collide")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	if _, _, err := s.Remember(ctx, "k1", []byte("first")); err != nil {
		t.Fatalf("remember: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	got, seen, err := s.Remember(ctx, "k1", []byte("second"))
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if seen || got != nil {
		t.Fatal("expired entry must be treated as first sight")
	}
}

func TestMemoryStoreConcurrentWritersAgree(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	const n = 16
	winners := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, seen, err := s.Remember(ctx, "k1", []byte("x")); err != nil {
				t.Errorf("remember: %v", err)
			} else if !seen {
				winners <- 1
			}
		}()
	}
	wg.Wait()
	close(winners)

	count := 0
	for range winners {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one first sight, got %d", count)
	}
}
