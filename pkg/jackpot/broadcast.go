package jackpot

import (
	"context"
	"time"
)

// Broadcaster fans pool updates out to stream subscribers. The service
// flushes its coalesced buffer through here on every tick; SSE and
// WebSocket handlers consume via Listen.
type Broadcaster struct {
	updates chan Update
}

// NewBroadcaster creates a broadcaster whose channel buffers up to
// buffer pending pool updates.
func NewBroadcaster(buffer int) *Broadcaster {
	return &Broadcaster{
		updates: make(chan Update, buffer),
	}
}

// SendWithTimeout publishes one pool update, giving slow listeners at
// most timeout to drain the buffer. It reports false when the update
// was dropped; the next flush carries the pool's current value anyway.
func (b *Broadcaster) SendWithTimeout(update Update, timeout time.Duration) bool {
	select {
	case b.updates <- update:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Listen subscribes to pool updates until ctx ends or the returned
// cancel function runs. Each subscriber gets its own buffered channel;
// the channel is closed on cancellation.
func (b *Broadcaster) Listen(ctx context.Context) (<-chan Update, context.CancelFunc) {
	listenerCtx, cancel := context.WithCancel(ctx)
	out := make(chan Update, cap(b.updates))

	go func() {
		defer close(out)
		for {
			select {
			case <-listenerCtx.Done():
				return
			case update, ok := <-b.updates:
				if !ok {
					return
				}
				select {
				case out <- update:
				case <-listenerCtx.Done():
					return
				}
			}
		}
	}()

	return out, cancel
}
