package scene

import "sync"

// EventKind names a cross-cutting notification.
type EventKind string

const (
	// EventObjectAdded is published when a panel or container lands on the canvas.
	EventObjectAdded EventKind = "object-added"
	// EventObjectRemoved is published when a panel or container leaves the canvas.
	EventObjectRemoved EventKind = "object-removed"
	// EventRepeatsProcessed is published once per effective repeat cycle.
	EventRepeatsProcessed EventKind = "repeats-processed"
)

// Event is delivered to subscribers of its Kind. Source is the key of the
// object that raised it. Bubbling events reach every subscriber of the kind;
// non-bubbling ones only reach subscribers registered on Source.
type Event struct {
	Kind    EventKind
	Source  string
	Bubble  bool
	Payload any
}

type subscriber struct {
	source string
	fn     func(Event)
	active bool
}

// Bus delivers events synchronously on the publishing goroutine.
type Bus struct {
	mu   sync.Mutex
	subs map[EventKind][]*subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventKind][]*subscriber)}
}

// Subscribe receives every bubbling event of kind and every event raised
// without a source.
func (b *Bus) Subscribe(kind EventKind, fn func(Event)) Unbind {
	return b.subscribe(kind, "", fn)
}

// SubscribeTo receives events of kind raised by source, bubbling or not.
func (b *Bus) SubscribeTo(source string, kind EventKind, fn func(Event)) Unbind {
	return b.subscribe(kind, source, fn)
}

func (b *Bus) subscribe(kind EventKind, source string, fn func(Event)) Unbind {
	s := &subscriber{source: source, fn: fn, active: true}

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[EventKind][]*subscriber)
	}
	b.subs[kind] = append(b.subs[kind], s)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		s.active = false
		b.mu.Unlock()
	}
}

// Publish delivers e to the matching subscribers. A nil bus drops events.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	var targets []*subscriber
	kept := b.subs[e.Kind][:0]
	for _, s := range b.subs[e.Kind] {
		if !s.active {
			continue
		}
		kept = append(kept, s)
		switch {
		case s.source == "":
			if e.Bubble || e.Source == "" {
				targets = append(targets, s)
			}
		case s.source == e.Source:
			targets = append(targets, s)
		}
	}
	b.subs[e.Kind] = kept
	b.mu.Unlock()

	for _, s := range targets {
		b.mu.Lock()
		active := s.active
		b.mu.Unlock()
		if active {
			s.fn(e)
		}
	}
}
