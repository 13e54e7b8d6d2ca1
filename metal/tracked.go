package metal

import (
	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/tag"
)

// CurrentTracker returns the tracking scope collecting tags, or nil.
func (rs *Runtime) CurrentTracker() *tag.Tracker { return rs.currentTracker }

// SetCurrentTracker installs t and returns the previous tracker so the
// caller can restore it.
func (rs *Runtime) SetCurrentTracker(t *tag.Tracker) *tag.Tracker {
	prev := rs.currentTracker
	rs.currentTracker = t
	return prev
}

// Track runs fn in a fresh tracking scope and returns the combination of
// every tag read inside it. The combined tag is also reported to the
// enclosing scope.
func (rs *Runtime) Track(fn func()) (combined tag.Tag) {
	tracker := tag.NewTracker()
	parent := rs.SetCurrentTracker(tracker)
	defer func() {
		rs.SetCurrentTracker(parent)
		combined = tracker.Combine()
		if parent != nil {
			parent.Add(combined)
		}
	}()
	fn()
	return combined
}

// TagForProperty returns the tag validating key on obj.
func (rs *Runtime) TagForProperty(obj *object.Object, key string) *tag.PropertyTag {
	tags := rs.Meta(obj).WritableTags()
	t := tags[key]
	if t == nil {
		t = rs.clock.NewPropertyTag()
		tags[key] = t
	}
	return t
}

// TagFor returns the object-wide tag of obj.
func (rs *Runtime) TagFor(obj *object.Object) (*tag.DirtyableTag, error) {
	return rs.Meta(obj).WritableTag(func(*object.Object) *tag.DirtyableTag {
		return rs.clock.NewDirtyable()
	})
}

func (rs *Runtime) consumeTag(obj *object.Object, key string) {
	if !rs.tracked || rs.currentTracker == nil {
		return
	}
	rs.currentTracker.Add(rs.TagForProperty(obj, key))
}

func markObjectAsDirty(m *meta.Meta, key string) {
	if t := m.ReadableTags()[key]; t != nil {
		t.Dirty()
	}
	if t := m.ReadableTag(); t != nil {
		t.Dirty()
	}
}

// TrackedProperty is a plain stored property that participates in tag
// validation: reads are recorded by the current tracking scope and writes
// dirty the property's tag.
type TrackedProperty struct {
	rs      *Runtime
	initial any
}

// Tracked creates a tracked property descriptor whose value is initial
// until first set.
func (rs *Runtime) Tracked(initial any) *TrackedProperty {
	return &TrackedProperty{rs: rs, initial: initial}
}

func (t *TrackedProperty) Get(obj *object.Object, key string) any {
	t.rs.consumeTag(obj, key)
	if v, ok := obj.Lookup(key); ok {
		return v
	}
	return t.initial
}

func (t *TrackedProperty) Set(obj *object.Object, key string, value any) (any, error) {
	m := t.rs.Meta(obj)
	if m.IsSourceDestroyed() || m.IsMetaDestroyed() {
		return nil, destroyedSetError(obj, key)
	}
	obj.SetOwn(key, value)
	t.rs.TagForProperty(obj, key).Dirty()
	t.rs.notifyPropertyChange(obj, key, m)
	return value, nil
}

func (t *TrackedProperty) Setup(obj *object.Object, key string, _ *Field, m *meta.Meta) error {
	return m.WriteDescriptors(key, t)
}

func (t *TrackedProperty) Teardown(_ *object.Object, key string, m *meta.Meta) error {
	return m.RemoveDescriptors(key)
}
