package template

import (
	"sync"
)

// Notifier fans change signals out to subscribers. Slow subscribers miss
// intermediate signals instead of blocking the notifier.
type Notifier struct {
	mu          sync.RWMutex
	subscribers []chan struct{}
	closed      bool
}

// Notify signals every subscriber.
func (n *Notifier) Notify() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}
	for _, ch := range n.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscriber returns a channel receiving a signal after each change. The
// channel is closed by Close.
func (n *Notifier) Subscriber() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	if n.closed {
		close(ch)
		return ch
	}
	n.subscribers = append(n.subscribers, ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (n *Notifier) Unsubscribe(ch <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, sub := range n.subscribers {
		if sub == ch {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes every subscriber channel. Later subscribers get a closed channel.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	subs := n.subscribers
	n.subscribers = nil
	n.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// ChangeSource is implemented by templates that can change after parsing.
type ChangeSource interface {
	Subscriber() <-chan struct{}
	Unsubscribe(ch <-chan struct{})
}
