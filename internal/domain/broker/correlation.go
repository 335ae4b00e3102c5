// Package broker provides the domain Message Broker: request/reply
// correlation over the parent/child channel.
package broker

import "sync"

// CorrelationCounter hands out monotonically increasing request ids in
// [1, 2^32-1], wrapping back to 1 without ever emitting 0 — 0 is
// reserved and must never be used as a correlation id.
type CorrelationCounter struct {
	mu   sync.Mutex
	next uint32
}

// NewCorrelationCounter creates a counter starting at 1.
//
// Returns:
//   - *CorrelationCounter: the constructed counter.
func NewCorrelationCounter() *CorrelationCounter {
	return &CorrelationCounter{next: 1}
}

// Next returns the next correlation id and advances the counter,
// skipping 0 on wrap-around.
//
// Returns:
//   - uint32: the next id, always in [1, 2^32-1].
func (c *CorrelationCounter) Next() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	if c.next == 0 {
		// Wrapped past the maximum uint32; 0 is reserved, skip it.
		c.next = 1
	}
	return id
}
