// Package events fans state changes out to subscribers.
package events

import (
	"sync"

	"github.com/fileflow/fileflow/internal/metrics"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Broadcaster manages subscribers and publishes values of type T to them.
type Broadcaster[T any] struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[chan T]struct{}
}

// NewBroadcaster creates a new broadcaster. buffer <= 0 means DefaultBuffer.
func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster[T]{
		buffer:      buffer,
		subscribers: make(map[chan T]struct{}),
	}
}

// Subscribe adds a new subscriber and returns its channel.
// The caller must call Unsubscribe when done.
func (b *Broadcaster[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	n := len(b.subscribers)
	b.mu.Unlock()
	metrics.SetStateSubscribers(n)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown channels
// are ignored.
func (b *Broadcaster[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	for ch := range b.subscribers {
		if (<-chan T)(ch) == sub {
			delete(b.subscribers, ch)
			close(ch)
			break
		}
	}
	n := len(b.subscribers)
	b.mu.Unlock()
	metrics.SetStateSubscribers(n)
}

// Publish sends v to all subscribers. Non-blocking: a subscriber whose
// buffer is full misses v.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- v:
		default:
		}
	}
}

// Count returns the current number of subscribers.
func (b *Broadcaster[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close unsubscribes everyone.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	for ch := range b.subscribers {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.mu.Unlock()
	metrics.SetStateSubscribers(0)
}
