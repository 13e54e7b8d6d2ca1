package metal

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
)

// NotifyPropertyChange reports that key on obj changed. The key's
// descriptor is told first, then properties derived from it are
// invalidated, chained paths through it are notified and finally its
// observers run, deferred while inside ChangeProperties.
func (rs *Runtime) NotifyPropertyChange(obj *object.Object, key string) {
	rs.notifyPropertyChange(obj, key, rs.PeekMeta(obj))
}

func (rs *Runtime) notifyPropertyChange(obj *object.Object, key string, m *meta.Meta) {
	if m != nil && !m.IsInitialized(obj) {
		return
	}

	if desc, ok := rs.descriptorFor(obj, key, m).(ChangeAware); ok {
		desc.DidChange(obj, key)
	}

	if m != nil && m.PeekWatching(key) > 0 {
		rs.dependentKeysDidChange(obj, key, m)
		if own := rs.ownMeta(obj); own != nil {
			rs.chainsDidChange(obj, key, own)
		}
		rs.notifyObservers(obj, key, m)
	}

	if rs.tracked {
		if own := rs.ownMeta(obj); own != nil {
			markObjectAsDirty(own, key)
		}
	}
}

// dependentKeysDidChange notifies every property derived from depKey. Each
// (object, key) pair is visited once per outermost notification so cyclic
// dependencies terminate.
func (rs *Runtime) dependentKeysDidChange(obj *object.Object, depKey string, m *meta.Meta) {
	if m.IsSourceDestroying() || !m.HasDeps(depKey) {
		return
	}

	if rs.didSeen == nil {
		rs.didSeen = map[*object.Object]mapset.Set[string]{}
		defer func() { rs.didSeen = nil }()
	}
	seen := rs.didSeen[obj]
	if seen == nil {
		seen = mapset.NewThreadUnsafeSet[string]()
		rs.didSeen[obj] = seen
	}
	if !seen.Add(depKey) {
		return
	}

	m.ForEachInDeps(depKey, func(key string) {
		if cp, ok := rs.descriptorFor(obj, key, m).(*ComputedProperty); ok && cp.suspended == obj {
			return
		}
		rs.notifyPropertyChange(obj, key, m)
	})
}

// BeginPropertyChanges starts deferring observers. Calls nest.
func (rs *Runtime) BeginPropertyChanges() {
	rs.deferred++
}

// EndPropertyChanges closes one BeginPropertyChanges; the outermost call
// flushes the deferred observers.
func (rs *Runtime) EndPropertyChanges() {
	rs.deferred--
	if rs.deferred <= 0 {
		rs.deferred = 0
		rs.observers.flush(rs)
	}
}

// ChangeProperties runs fn with observers deferred, so each observer fires
// at most once per (object, key) however many times the key changes inside.
func (rs *Runtime) ChangeProperties(fn func()) {
	rs.BeginPropertyChanges()
	defer rs.EndPropertyChanges()
	fn()
}

// observerSet queues observer notifications while changes are deferred,
// deduplicated by (sender, event).
type observerSet struct {
	indices map[observerKey]int
	queue   []observerEntry
}

type observerKey struct {
	sender *object.Object
	event  string
}

type observerEntry struct {
	observerKey
	key string
}

func newObserverSet() *observerSet {
	return &observerSet{indices: map[observerKey]int{}}
}

func (s *observerSet) add(sender *object.Object, key, event string) {
	k := observerKey{sender: sender, event: event}
	if _, ok := s.indices[k]; ok {
		return
	}
	s.indices[k] = len(s.queue)
	s.queue = append(s.queue, observerEntry{observerKey: k, key: key})
}

func (s *observerSet) flush(rs *Runtime) {
	queue := s.queue
	s.queue = nil
	clear(s.indices)
	for _, e := range queue {
		if m := rs.ownMeta(e.sender); m != nil && (m.IsSourceDestroying() || m.IsSourceDestroyed()) {
			continue
		}
		rs.SendEvent(e.sender, e.event, e.sender, e.key)
	}
}
