package meta

import (
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/weakmap"
)

// Store associates objects with their Meta without keeping either alive.
// A store also owns the listener version used to invalidate flattened
// listener lists; metas from different stores never share it.
type Store struct {
	metas           *weakmap.Map[object.Object, *Meta]
	listenerVersion uint64
	counters        Counters
}

func NewStore() *Store {
	return &Store{
		metas:           weakmap.New[object.Object, *Meta](),
		listenerVersion: 1,
	}
}

// Get returns the meta owned by obj itself. It never walks prototypes and
// never creates anything.
func (s *Store) Get(obj *object.Object) *Meta {
	m, _ := s.metas.Get(obj)
	return m
}

// Set stores m as the meta of obj.
func (s *Store) Set(obj *object.Object, m *Meta) {
	s.counters.SetCalls++
	s.metas.Set(obj, m)
}

// Peek returns the meta of obj or of its nearest prototype that has one.
// Callers that need the object's own meta must compare Source with obj.
func (s *Store) Peek(obj *object.Object) *Meta {
	for p := obj; p != nil; p = p.Proto() {
		s.counters.PeekCalls++
		if m, ok := s.metas.Get(p); ok {
			return m
		}
		s.counters.PeekPrototypeWalks++
	}
	return nil
}

// Meta returns the meta owned by obj, creating it on first use.
func (s *Store) Meta(obj *object.Object) *Meta {
	s.counters.MetaCalls++
	if m := s.Get(obj); m != nil {
		return m
	}
	m := newMeta(s, obj)
	s.Set(obj, m)
	return m
}

// Delete destroys the meta owned by obj. Repeated calls have no effect and
// an inherited meta is never touched.
func (s *Store) Delete(obj *object.Object) {
	s.counters.DeleteCalls++
	if m := s.Get(obj); m != nil {
		m.Destroy()
	}
}

// DescriptorFor returns the descriptor visible for key on obj, if any.
func (s *Store) DescriptorFor(obj *object.Object, key string) any {
	m := s.Peek(obj)
	if m == nil {
		return nil
	}
	return m.PeekDescriptors(key)
}

func (s *Store) Counters() Counters { return s.counters }

func (s *Store) ResetCounters() { s.counters = Counters{} }
