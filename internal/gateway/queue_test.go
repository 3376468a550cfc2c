package gateway

import (
	"context"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int]()
	for i := 1; i <= 5; i++ {
		q.Put(i)
	}

	if q.Len() != 5 {
		t.Fatalf("expected queue depth 5, got %d", q.Len())
	}

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		item, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item != i {
			t.Errorf("expected item %d, got %d", i, item)
		}
	}

	if q.Len() != 0 {
		t.Errorf("expected empty queue, got depth %d", q.Len())
	}
}

func TestQueueGetBlocksUntilPut(t *testing.T) {
	q := NewQueue[string]()

	done := make(chan string, 1)
	go func() {
		item, err := q.Get(context.Background())
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- item
	}()

	// Give the consumer a chance to block first
	time.Sleep(20 * time.Millisecond)
	q.Put("hello")

	select {
	case got := <-done:
		if got != "hello" {
			t.Errorf("expected %q, got %q", "hello", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Get did not return after Put")
	}
}

func TestQueueGetCancelled(t *testing.T) {
	q := NewQueue[int]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Get(ctx); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestQueueInterleavedPutGet(t *testing.T) {
	q := NewQueue[int]()
	ctx := context.Background()

	q.Put(1)
	q.Put(2)
	if item, _ := q.Get(ctx); item != 1 {
		t.Errorf("expected 1, got %d", item)
	}
	q.Put(3)
	if item, _ := q.Get(ctx); item != 2 {
		t.Errorf("expected 2, got %d", item)
	}
	if item, _ := q.Get(ctx); item != 3 {
		t.Errorf("expected 3, got %d", item)
	}
}
