package feed

import (
	"log"
	"sync"
)

type Op string

const (
	OpAdded    Op = "added"
	OpModified Op = "modified"
	OpRemoved  Op = "removed"
)

// Event is one change emitted by a repository after a successful write.
type Event struct {
	Collection string
	Op         Op
	ID         uint
}

// subscriberBuffer bounds how far a slow consumer may lag before events
// are dropped.
const subscriberBuffer = 256

type subscriber struct {
	collection string
	ch         chan Event
	done       chan struct{}
	once       sync.Once
}

// Bus is the in-process change stream. Each subscriber has its own buffered
// channel drained by a single goroutine, so one event is handled to
// completion before the next; no ordering holds across subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{})}
}

// Publish delivers e to every subscriber of its collection. A subscriber
// whose buffer is full misses the event.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]*subscriber, 0, len(b.subs))
	for s := range b.subs {
		if s.collection == e.Collection {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()
	for _, s := range subs {
		select {
		case s.ch <- e:
		default:
			log.Printf("[feed] subscriber lagging, dropped %s event for %s/%d", e.Op, e.Collection, e.ID)
		}
	}
}

// Subscribe registers handler for every event on collection. The handler
// runs on a dedicated goroutine, one event at a time, in publish order.
// The returned cancel releases the subscription; callers own exactly one
// cancel per subscription and must invoke it on teardown, or the listener
// leaks and keeps firing.
func (b *Bus) Subscribe(collection string, handler func(Event)) (cancel func()) {
	s := &subscriber{
		collection: collection,
		ch:         make(chan Event, subscriberBuffer),
		done:       make(chan struct{}),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		for {
			select {
			case e := <-s.ch:
				handler(e)
			case <-s.done:
				return
			}
		}
	}()

	return func() {
		s.once.Do(func() {
			b.mu.Lock()
			delete(b.subs, s)
			b.mu.Unlock()
			close(s.done)
		})
	}
}

// SubscriberCount reports live subscriptions for a collection.
func (b *Bus) SubscriberCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for s := range b.subs {
		if s.collection == collection {
			n++
		}
	}
	return n
}
