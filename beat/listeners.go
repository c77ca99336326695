package beat

import (
	"sync"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/logger"
	"github.com/google/uuid"
)

type (
	// Handle identifies a registered listener, for removing it later.
	Handle uuid.UUID

	registry struct {
		mu       sync.Mutex
		byHandle map[Handle]*listener
		order    []*listener // registration order; replaced, never modified in place
	}

	listener struct {
		handle Handle
		kind   listenerKind
		target rhythm.Coordinate // only for oneShot
		fn     func(rhythm.Coordinate)
	}

	listenerKind int
)

const (
	persistent listenerKind = iota // fires on every dispatch until removed
	oneShot                        // fires once, on the dispatch of target
)

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// OnBeat registers fn to be called with every dispatched coordinate, until
// the listener is removed.
func (b *Beat) OnBeat(fn func(rhythm.Coordinate)) Handle {
	return b.listeners.add(persistent, rhythm.Coordinate{}, fn)
}

// AtBeat registers fn to be called once, when c is dispatched. The listener
// removes itself before fn is called.
func (b *Beat) AtBeat(c rhythm.Coordinate, fn func()) Handle {
	return b.listeners.add(oneShot, c, func(rhythm.Coordinate) { fn() })
}

// AtBar registers fn to be called once, on the first sub-beat of the bar of
// c. Only c.Bar matters.
func (b *Beat) AtBar(c rhythm.Coordinate, fn func()) Handle {
	return b.AtBeat(rhythm.Coordinate{Bar: c.Bar}, fn)
}

// OnPattern registers fn to be called on every dispatch with the note of p
// at the dispatched coordinate, resolved with policy. fn is called also when
// there is no note, with an absent Optional.
func OnPattern[T any](b *Beat, p rhythm.Pattern[T], fn func(rhythm.Optional[T]), policy rhythm.WrapPolicy) Handle {
	return b.OnBeat(func(c rhythm.Coordinate) {
		fn(p.Resolve(c, policy))
	})
}

// RemoveListener unregisters the listener with handle h. Removing a listener
// that is not registered does nothing. A listener removed during a dispatch
// is not called anymore, not even in that dispatch.
func (b *Beat) RemoveListener(h Handle) {
	b.listeners.remove(h)
}

// ClearListeners unregisters all listeners.
func (b *Beat) ClearListeners() {
	b.listeners.mu.Lock()
	defer b.listeners.mu.Unlock()
	b.listeners.byHandle = nil
	b.listeners.order = nil
}

// Listeners returns the number of registered listeners.
func (b *Beat) Listeners() int {
	b.listeners.mu.Lock()
	defer b.listeners.mu.Unlock()
	return len(b.listeners.order)
}

func (r *registry) add(kind listenerKind, target rhythm.Coordinate, fn func(rhythm.Coordinate)) Handle {
	l := &listener{handle: Handle(uuid.New()), kind: kind, target: target, fn: fn}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byHandle == nil {
		r.byHandle = map[Handle]*listener{}
	}
	r.byHandle[l.handle] = l
	order := make([]*listener, len(r.order), len(r.order)+1)
	copy(order, r.order)
	r.order = append(order, l)
	return l.handle
}

func (r *registry) remove(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(h)
}

func (r *registry) removeLocked(h Handle) {
	if _, ok := r.byHandle[h]; !ok {
		return
	}
	delete(r.byHandle, h)
	order := make([]*listener, 0, len(r.order)-1)
	for _, l := range r.order {
		if l.handle != h {
			order = append(order, l)
		}
	}
	r.order = order
}

// dispatch calls the listeners registered at the start of the dispatch, in
// registration order. Listeners registered by a listener are first called on
// the next dispatch.
func (r *registry) dispatch(c rhythm.Coordinate) {
	r.mu.Lock()
	snapshot := r.order
	r.mu.Unlock()
	for _, l := range snapshot {
		if r.claim(l, c) {
			call(l, c)
		}
	}
}

// claim reports whether l should be called for c, removing one-shot
// listeners that are about to fire.
func (r *registry) claim(l *listener, c rhythm.Coordinate) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byHandle[l.handle] != l {
		return false
	}
	if l.kind == oneShot {
		if l.target != c {
			return false
		}
		r.removeLocked(l.handle)
	}
	return true
}

func call(l *listener, c rhythm.Coordinate) {
	defer func() {
		if err := recover(); err != nil {
			logger.Logf("beat", "listener %v panicked at %v: %v", l.handle, c, err)
		}
	}()
	l.fn(c)
}
