package triplestore

// Counter is the per-store monotonic blank-node counter.
//
// Every blank node that enters a store gets the id "b<n>" where n comes from
// this counter. No wall clock and no entropy: the same sequence of loads
// into a fresh store always yields the same ids.
//
// Counter is not safe for concurrent use; the engine serializes operations.
type Counter struct {
	seq int64
}

// NewCounter creates a counter starting at 0.
func NewCounter() *Counter {
	return &Counter{}
}

// NewCounterAt creates a counter at a specific position.
// Used when a store is restored from a snapshot.
func NewCounterAt(start int64) *Counter {
	return &Counter{seq: start}
}

// Current returns the position without advancing.
func (c *Counter) Current() int64 {
	return c.seq
}

// advance moves the counter forward by n after a batch has committed.
func (c *Counter) advance(n int64) {
	c.seq += n
}
