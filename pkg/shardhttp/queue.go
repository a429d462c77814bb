package shardhttp

import "sync/atomic"

// replyQueueCapacity is the bound on outstanding replies the reader may
// get ahead of the writer by (I2). Configurable via newReplyQueue for
// tests; the connection wires it from config.QueueCapacity.
const replyQueueCapacity = 10

// replyQueue is a single-producer single-consumer bounded FIFO of *Reply,
// with a nil entry used as the EOF sentinel that signals the producer is
// done. It is a thin, named wrapper around a buffered channel so that
// push/pop read as the spec's push_eventually/pop_eventually rather than
// bare channel operations, and so queue depth is observable for tests.
type replyQueue struct {
	ch  chan *Reply
	len atomic.Int32
}

// newReplyQueue creates a queue with the given capacity. Capacity must be
// at least 1.
func newReplyQueue(capacity int) *replyQueue {
	if capacity < 1 {
		capacity = replyQueueCapacity
	}
	return &replyQueue{ch: make(chan *Reply, capacity)}
}

// pushEventually enqueues reply, suspending the caller's goroutine if the
// queue is full until a pop frees a slot. A nil reply pushes the EOF
// sentinel.
func (q *replyQueue) pushEventually(reply *Reply) {
	q.ch <- reply
	q.len.Add(1)
}

// popEventually dequeues the head, suspending until a push arrives if the
// queue is empty. ok is false only if the channel was closed without a
// final push, which the connection never does — callers should instead
// look for a nil reply (EOF sentinel).
func (q *replyQueue) popEventually() (reply *Reply, ok bool) {
	reply, ok = <-q.ch
	if ok {
		q.len.Add(-1)
	}
	return reply, ok
}

// Len reports the current queue depth. Exposed for property tests (P2);
// racy with concurrent push/pop by design, acceptable for observation.
func (q *replyQueue) Len() int {
	return int(q.len.Load())
}
