package meta

import (
	"reflect"
	"slices"

	"github.com/cespare/xxhash/v2"
)

/*
Listener creation and removal have to be cheap: far more listeners get
registered than events ever fire. A new listener is a single append; the
merge with inherited listeners is deferred until an event is dispatched.
*/

type ListenerKind uint8

const (
	ListenerAdd ListenerKind = iota
	ListenerOnce
	// ListenerRemove blocks one inherited (event, target, method).
	ListenerRemove
	// ListenerRemoveAll blocks every inherited listener of an event.
	ListenerRemoveAll
)

func (k ListenerKind) String() string {
	switch k {
	case ListenerAdd:
		return "add"
	case ListenerOnce:
		return "once"
	case ListenerRemove:
		return "remove"
	case ListenerRemoveAll:
		return "removeAll"
	default:
		return "unknown"
	}
}

// Listener is one entry of a listener list. Identity is (Event, Target,
// Method); Kind only matters at dispatch. Target and Method must be
// comparable: a method name string, or a pointer.
type Listener struct {
	Event  string
	Target any
	Method any
	Kind   ListenerKind

	eventHash uint64
}

// Match is a listener selected for dispatch.
type Match struct {
	Target any
	Method any
	Once   bool
}

func (m *Meta) AddToListeners(event string, target, method any, once bool) error {
	m.store.counters.AddToListenersCalls++
	kind := ListenerAdd
	if once {
		kind = ListenerOnce
	}
	return m.PushListener(event, target, method, kind)
}

func (m *Meta) RemoveFromListeners(event string, target, method any) error {
	m.store.counters.RemoveFromListenersCalls++
	return m.PushListener(event, target, method, ListenerRemove)
}

// RemoveAllListeners drops every own listener for event and blocks all
// inherited ones.
func (m *Meta) RemoveAllListeners(event string) error {
	m.store.counters.RemoveAllListenersCalls++
	if err := m.checkAlive("cannot remove listeners for `%s`", event); err != nil {
		return err
	}
	m.writableListeners()

	h := xxhash.Sum64String(event)
	for i := len(m.listeners) - 1; i >= 0; i-- {
		if m.listeners[i].is(h, event) {
			m.listeners = slices.Delete(m.listeners, i, i+1)
			if i < m.inheritedEnd {
				m.inheritedEnd--
			}
		}
	}

	// remove-alls sit at the start of the own section, rare and easy to find there
	m.listeners = slices.Insert(m.listeners, m.inheritedEnd, Listener{
		Event:     event,
		Kind:      ListenerRemoveAll,
		eventHash: h,
	})
	return nil
}

// PushListener records an own listener entry. An inherited copy of the
// same identity is dropped first so own state never merges with it.
func (m *Meta) PushListener(event string, target, method any, kind ListenerKind) error {
	if err := m.checkAlive("cannot add listener for `%s`", event); err != nil {
		return err
	}
	m.writableListeners()

	h := xxhash.Sum64String(event)
	i := indexOfListener(m.listeners, h, event, target, method)

	if i != -1 && i < m.inheritedEnd {
		m.listeners = slices.Delete(m.listeners, i, i+1)
		m.inheritedEnd--
		i = -1
	}

	if i == -1 || m.listeners[i].Kind == ListenerRemoveAll {
		m.listeners = append(m.listeners, Listener{
			Event:     event,
			Target:    target,
			Method:    method,
			Kind:      kind,
			eventHash: h,
		})
		return nil
	}

	l := &m.listeners[i]
	_, named := method.(string)
	if !named && kind == ListenerRemove && l.Kind != ListenerRemove {
		// drop the entry entirely so the handler can be collected
		m.listeners = slices.Delete(m.listeners, i, i+1)
		return nil
	}
	l.Kind = kind
	return nil
}

// writableListeners prepares the own list for a write. When this meta
// belongs to a prototype that has already been flattened, descendants may
// hold a stale copy, so the store's listener version is bumped.
func (m *Meta) writableListeners() {
	if m.proto && m.isFlattened() {
		m.store.counters.ReopensAfterFlatten++
		m.store.listenerVersion++
	}
}

func (m *Meta) shouldFlatten() bool { return m.flattenedVersion < m.store.listenerVersion }

// isFlattened is true only for the current version: a stale meta flattens
// again on its next read, so there is no need to bump again.
func (m *Meta) isFlattened() bool { return m.flattenedVersion == m.store.listenerVersion }

func (m *Meta) setFlattened() { m.flattenedVersion = m.store.listenerVersion }

// FlattenedListeners returns the own list with the parent's flattened
// listeners merged into its inherited prefix. The merge is cached until the
// store's listener version moves.
func (m *Meta) FlattenedListeners() []Listener {
	if m.shouldFlatten() {
		if parent := m.Parent(); parent != nil {
			// rebuilt even when the parent has no listeners left, so removals
			// on the parent reach this meta
			inherited := parent.FlattenedListeners()
			own := m.listeners[m.inheritedEnd:]
			prefix := make([]Listener, 0, len(inherited)+len(own))
			for _, l := range inherited {
				if indexOfListener(own, l.eventHash, l.Event, l.Target, l.Method) == -1 {
					prefix = append(prefix, l)
					m.store.counters.ListenersInherited++
				}
			}
			m.inheritedEnd = len(prefix)
			m.listeners = append(prefix, own...)
		}
		m.store.counters.ListenersFlattened++
		m.setFlattened()
	}
	return m.listeners
}

// OwnListeners returns the listeners pushed on this meta, excluding the
// inherited prefix.
func (m *Meta) OwnListeners() []Listener {
	return m.listeners[m.inheritedEnd:]
}

// MatchingListeners returns the listeners to dispatch for event in order.
// Removal markers only suppress, they never match.
func (m *Meta) MatchingListeners(event string) []Match {
	var result []Match
	h := xxhash.Sum64String(event)
	for _, l := range m.FlattenedListeners() {
		if !l.is(h, event) {
			continue
		}
		if l.Kind == ListenerAdd || l.Kind == ListenerOnce {
			result = append(result, Match{
				Target: l.Target,
				Method: l.Method,
				Once:   l.Kind == ListenerOnce,
			})
		}
	}
	return result
}

func (l *Listener) is(h uint64, event string) bool {
	return l.eventHash == h && l.Event == event
}

// indexOfListener finds the last entry with the given identity. A
// remove-all for the event matches any target and method.
func indexOfListener(listeners []Listener, h uint64, event string, target, method any) int {
	for i := len(listeners) - 1; i >= 0; i-- {
		l := &listeners[i]
		if !l.is(h, event) {
			continue
		}
		if l.Kind == ListenerRemoveAll || (identical(l.Target, target) && identical(l.Method, method)) {
			return i
		}
	}
	return -1
}

// identical compares two identities without panicking on values that are
// not comparable; such values are never identical to anything.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}
