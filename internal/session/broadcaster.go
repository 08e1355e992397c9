package session

import (
	"sync"
)

// Signal names a process-wide session event.
type Signal string

const (
	// SignalLogout is published when the user explicitly logs out.
	SignalLogout Signal = "auth:logout"
	// SignalRefreshFailed is published when the access credential could not be refreshed.
	SignalRefreshFailed Signal = "auth:refresh-failed"
)

// Listener reacts to a published signal.
type Listener func(Signal)

// Broadcaster fans signals out to subscribers without the publisher knowing
// who they are. Publish never waits for listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[Signal]map[int]Listener
	observe   func(Signal)
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[Signal]map[int]Listener)}
}

// OnPublish registers a hook that runs synchronously on every Publish,
// before listeners are dispatched. Used for metrics.
func (b *Broadcaster) OnPublish(fn func(Signal)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observe = fn
}

// Subscribe registers l for signal s and returns a function that removes it.
func (b *Broadcaster) Subscribe(s Signal, l Listener) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners[s] == nil {
		b.listeners[s] = make(map[int]Listener)
	}
	id := b.nextID
	b.nextID++
	b.listeners[s][id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners[s], id)
		})
	}
}

// Publish delivers s to every current subscriber, each on its own goroutine.
func (b *Broadcaster) Publish(s Signal) {
	b.mu.RLock()
	observe := b.observe
	targets := make([]Listener, 0, len(b.listeners[s]))
	for _, l := range b.listeners[s] {
		targets = append(targets, l)
	}
	b.mu.RUnlock()

	if observe != nil {
		observe(s)
	}
	for _, l := range targets {
		go l(s)
	}
}
