package chart

import (
	"sync"
	"time"
)

// RefreshEvent announces that a batch of indicator work finished and the
// chart should redraw once
type RefreshEvent struct {
	Pair       string
	Timeframe  string
	Indicators []string // ids touched by the batch
	At         time.Time
}

// RefreshConsumer is a function type that processes refresh events
type RefreshConsumer func(event RefreshEvent)

// RefreshFeed fans refresh events out to subscribers
// Publishing never blocks; events are dropped when the feed is saturated
type RefreshFeed struct {
	mu        sync.RWMutex
	events    chan RefreshEvent
	consumers []RefreshConsumer
	started   bool
}

// NewRefreshFeed creates a new refresh feed
func NewRefreshFeed() *RefreshFeed {
	return &RefreshFeed{
		events: make(chan RefreshEvent, 100), // Buffered channel to prevent blocking
	}
}

// Subscribe registers a consumer for refresh events
func (f *RefreshFeed) Subscribe(consumer RefreshConsumer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.consumers = append(f.consumers, consumer)
}

// Publish hands an event to the feed without blocking
func (f *RefreshFeed) Publish(event RefreshEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.events == nil {
		return
	}

	select {
	case f.events <- event:
	default:
		// Feed saturated, drop the event
	}
}

// Start begins delivering events to subscribers
func (f *RefreshFeed) Start() {
	f.mu.Lock()
	if f.started || f.events == nil {
		f.mu.Unlock()
		return
	}
	f.started = true
	events := f.events
	f.mu.Unlock()

	go func() {
		for event := range events {
			f.mu.RLock()
			consumers := f.consumers
			f.mu.RUnlock()

			for _, consumer := range consumers {
				consumer(event)
			}
		}
	}()
}

// Stop closes the feed; pending events are discarded
func (f *RefreshFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.events != nil {
		close(f.events)
		f.events = nil
	}
	f.consumers = nil
	f.started = false
}
