// internal/notify/bus.go

// Package notify carries "this entity kind changed" signals from the
// mutation coordinator and the navigator to whatever view layer is
// listening. The core never renders; it only publishes.
package notify

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Kind identifies which part of the hierarchy changed.
type Kind string

const (
	KindYearsChanged      Kind = "years.changed"
	KindDaysChanged       Kind = "days.changed"
	KindVisitsChanged     Kind = "visits.changed"
	KindEntriesChanged    Kind = "entries.changed"
	KindNavigationChanged Kind = "navigation.changed"
)

// Event is one change notification. Total is set on entries.changed and
// carries the settled visit total; State is set on navigation.changed
// and carries the navigator's snapshot.
type Event struct {
	Kind  Kind             `json:"kind"`
	Total *decimal.Decimal `json:"total,omitempty"`
	State any              `json:"state,omitempty"`
}

// Publisher is the producer side of the change feed.
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers in-process. Publishing never
// blocks; a subscriber that falls behind its buffer misses events and is
// expected to refresh from the API.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

var _ Publisher = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be
// called to release the subscription.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}
