package shardhttp

import (
	"sync"
	"testing"
	"time"
)

func TestReplyQueueFIFO(t *testing.T) {
	q := newReplyQueue(10)
	for i := 0; i < 5; i++ {
		q.pushEventually(NewReply(200+i, nil))
	}
	for i := 0; i < 5; i++ {
		reply, ok := q.popEventually()
		if !ok || reply.Status != 200+i {
			t.Fatalf("pop %d: reply=%+v ok=%v", i, reply, ok)
		}
	}
}

func TestReplyQueueEOFSentinel(t *testing.T) {
	q := newReplyQueue(10)
	q.pushEventually(NewReply(200, nil))
	q.pushEventually(nil)

	reply, ok := q.popEventually()
	if !ok || reply == nil {
		t.Fatalf("first pop should be the real reply, got %+v ok=%v", reply, ok)
	}
	reply, ok = q.popEventually()
	if !ok || reply != nil {
		t.Fatalf("second pop should be the EOF sentinel (nil), got %+v ok=%v", reply, ok)
	}
}

// TestReplyQueueBoundsAt10 is the property test for P2: the queue never
// holds more than its configured capacity, and a push beyond capacity
// blocks until a pop frees a slot.
func TestReplyQueueBoundsAt10(t *testing.T) {
	q := newReplyQueue(10)
	for i := 0; i < 10; i++ {
		q.pushEventually(NewReply(200, nil))
	}
	if q.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", q.Len())
	}

	pushed := make(chan struct{})
	go func() {
		q.pushEventually(NewReply(201, nil))
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push past capacity completed without a pop freeing a slot")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := q.popEventually(); !ok {
		t.Fatal("pop failed")
	}

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push did not unblock after a pop freed a slot")
	}
}

func TestReplyQueueConcurrentProducerConsumer(t *testing.T) {
	q := newReplyQueue(4)
	const n = 200

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.pushEventually(NewReply(200+i%10, nil))
		}
		q.pushEventually(nil)
	}()

	got := 0
	for {
		reply, ok := q.popEventually()
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		if reply == nil {
			break
		}
		got++
	}
	wg.Wait()
	if got != n {
		t.Fatalf("consumed %d replies, want %d", got, n)
	}
}
