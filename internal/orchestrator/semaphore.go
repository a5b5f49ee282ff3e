package orchestrator

import "context"

// semaphore is a process-wide counting semaphore admission-controlling the
// generation path: at most N requests may be inside the LLM streaming
// section at once, queued FIFO beyond that via the buffered channel's send
// order. There is no explicit wait timeout; ctx cancellation (client
// disconnect) is the only way to abandon a queued acquisition.
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(size int) *semaphore {
	if size <= 0 {
		size = 1
	}
	return &semaphore{slots: make(chan struct{}, size)}
}

// acquire blocks until a slot is free or ctx is done.
func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees a slot. Safe to call exactly once per successful acquire.
func (s *semaphore) release() {
	<-s.slots
}

// inFlight reports the number of slots currently held, for tests and
// metrics; it is a point-in-time snapshot under concurrent use.
func (s *semaphore) inFlight() int {
	return len(s.slots)
}
