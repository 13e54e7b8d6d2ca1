package meta

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"weak"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/tag"
)

type metaFlags uint8

const (
	fSourceDestroying metaFlags = 1 << iota
	fSourceDestroyed
	fMetaDestroyed
)

type tombstone struct{}

// undefined marks a descriptor that was explicitly removed. It stops the
// inherited lookup without touching the ancestor that still defines one.
var undefined any = tombstone{}

// Chains is the root of the chain-watcher graph of an object. Meta only
// owns it so the graph can be torn down with the object.
type Chains interface {
	Destroy()
	CopyTo(dst Chains)
}

// Meta is the side record holding the observation state of one object.
// Every own map is created on first write, so an untouched meta allocates
// nothing beyond itself. Inheritance follows the prototype chain through
// Parent.
type Meta struct {
	store  *Store
	source weak.Pointer[object.Object]
	proto  bool

	parent         *Meta
	parentResolved bool

	flags metaFlags

	descriptors map[string]any
	deps        map[string]map[string]int
	watching    map[string]int
	mixins      mapset.Set[any]

	tags map[string]*tag.PropertyTag
	tag  *tag.DirtyableTag

	chainWatchers any
	chains        Chains

	listeners        []Listener
	inheritedEnd     int
	flattenedVersion uint64
}

func newMeta(s *Store, obj *object.Object) *Meta {
	s.counters.MetaInstantiated++
	return &Meta{
		store:  s,
		source: weak.Make(obj),
		proto:  obj.IsPrototype(),
	}
}

// Source returns the owning object, or nil once it has been collected.
func (m *Meta) Source() *object.Object { return m.source.Value() }

// IsPrototypeMeta reports whether the owner is a prototype whose state is
// inherited by other objects.
func (m *Meta) IsPrototypeMeta() bool { return m.proto }

// IsInitialized reports whether obj is a real instance rather than the
// prototype that owns this meta.
func (m *Meta) IsInitialized(obj *object.Object) bool {
	return !(m.proto && m.Source() == obj)
}

// Parent returns the meta of the owner's prototype, creating it when
// needed. The link is resolved once; changing the prototype afterwards is
// not supported.
func (m *Meta) Parent() *Meta {
	if !m.parentResolved {
		m.parentResolved = true
		if src := m.Source(); src != nil {
			if proto := src.Proto(); proto != nil {
				m.parent = m.store.Meta(proto)
			}
		}
	}
	return m.parent
}

func (m *Meta) String() string {
	if src := m.Source(); src != nil {
		return src.String()
	}
	return "<collected>"
}

func (m *Meta) Destroy() {
	if m.IsMetaDestroyed() {
		return
	}
	m.SetMetaDestroyed()

	// the chain graph points back at this object, drop it so both can go
	if m.chains != nil {
		m.chains.Destroy()
		m.chains = nil
	}
	m.chainWatchers = nil
}

func (m *Meta) IsSourceDestroying() bool { return m.hasFlag(fSourceDestroying) }
func (m *Meta) SetSourceDestroying()     { m.flags |= fSourceDestroying }
func (m *Meta) IsSourceDestroyed() bool  { return m.hasFlag(fSourceDestroyed) }
func (m *Meta) SetSourceDestroyed()      { m.flags |= fSourceDestroyed }
func (m *Meta) IsMetaDestroyed() bool    { return m.hasFlag(fMetaDestroyed) }
func (m *Meta) SetMetaDestroyed()        { m.flags |= fMetaDestroyed }

func (m *Meta) hasFlag(f metaFlags) bool { return m.flags&f == f }

func (m *Meta) checkAlive(format string, args ...any) error {
	if !m.IsMetaDestroyed() {
		return nil
	}
	return fmt.Errorf("%s on `%s`: %w", fmt.Sprintf(format, args...), m, ErrUseAfterDestroy)
}

// findInherited walks m and its ancestors and returns the first value the
// selector reports as present.
func findInherited[V any](m *Meta, own func(*Meta) (V, bool)) (v V, ok bool) {
	for p := m; p != nil; p = p.Parent() {
		if v, ok = own(p); ok {
			return v, true
		}
	}
	return v, false
}

// forEachInherited calls fn once per key across the chain. The closest
// ancestor defining a key shadows the others.
func forEachInherited[V any](m *Meta, own func(*Meta) map[string]V, fn func(key string, value V)) {
	var seen mapset.Set[string]
	for p := m; p != nil; p = p.Parent() {
		values := own(p)
		if len(values) == 0 {
			continue
		}
		if seen == nil {
			seen = mapset.NewThreadUnsafeSet[string]()
		}
		for _, key := range slices.Sorted(maps.Keys(values)) {
			if seen.Contains(key) {
				continue
			}
			seen.Add(key)
			fn(key, values[key])
		}
	}
}

func lookup[V any](values map[string]V, key string) (v V, ok bool) {
	if values == nil {
		return v, false
	}
	v, ok = values[key]
	return v, ok
}

// Descriptors

func (m *Meta) WriteDescriptors(key string, desc any) error {
	if err := m.checkAlive("cannot update descriptors for `%s`", key); err != nil {
		return err
	}
	if m.descriptors == nil {
		m.descriptors = map[string]any{}
	}
	m.descriptors[key] = desc
	return nil
}

// PeekDescriptors returns the nearest descriptor for key, or nil when none
// exists or the nearest entry is a removal marker.
func (m *Meta) PeekDescriptors(key string) any {
	desc, _ := findInherited(m, func(p *Meta) (any, bool) {
		return lookup(p.descriptors, key)
	})
	if desc == undefined {
		return nil
	}
	return desc
}

// RemoveDescriptors shadows key with a removal marker.
func (m *Meta) RemoveDescriptors(key string) error {
	return m.WriteDescriptors(key, undefined)
}

func (m *Meta) ForEachDescriptors(fn func(key string, desc any)) {
	forEachInherited(m, func(p *Meta) map[string]any { return p.descriptors }, func(key string, desc any) {
		if desc != undefined {
			fn(key, desc)
		}
	})
}

// Dependencies

// WriteDeps records how many times derivedKey currently depends on depKey.
func (m *Meta) WriteDeps(depKey, derivedKey string, count int) error {
	if err := m.checkAlive("cannot modify dependent keys for `%s`", derivedKey); err != nil {
		return err
	}
	if m.deps == nil {
		m.deps = map[string]map[string]int{}
	}
	inner := m.deps[depKey]
	if inner == nil {
		inner = map[string]int{}
		m.deps[depKey] = inner
	}
	inner[derivedKey] = count
	return nil
}

// PeekDeps returns the nearest count for the pair, zero when unset.
func (m *Meta) PeekDeps(depKey, derivedKey string) int {
	count, _ := findInherited(m, func(p *Meta) (int, bool) {
		return lookup(p.deps[depKey], derivedKey)
	})
	return count
}

func (m *Meta) HasDeps(depKey string) bool {
	_, ok := findInherited(m, func(p *Meta) (map[string]int, bool) {
		return lookup(p.deps, depKey)
	})
	return ok
}

// ForEachInDeps calls fn for every derived key that currently depends on
// depKey with a positive count. Keys are collected before fn runs so fn may
// change the counts.
func (m *Meta) ForEachInDeps(depKey string, fn func(derivedKey string)) {
	var calls []string
	forEachInherited(m, func(p *Meta) map[string]int { return p.deps[depKey] }, func(key string, count int) {
		if count > 0 {
			calls = append(calls, key)
		}
	})
	for _, key := range calls {
		fn(key)
	}
}

// Watching

func (m *Meta) WriteWatching(key string, count int) error {
	if err := m.checkAlive("cannot update watchers for `%s`", key); err != nil {
		return err
	}
	if m.watching == nil {
		m.watching = map[string]int{}
	}
	m.watching[key] = count
	return nil
}

func (m *Meta) PeekWatching(key string) int {
	count, _ := findInherited(m, func(p *Meta) (int, bool) {
		return lookup(p.watching, key)
	})
	return count
}

// ForEachWatching calls fn for every key with a positive watch count.
func (m *Meta) ForEachWatching(fn func(key string, count int)) {
	forEachInherited(m, func(p *Meta) map[string]int { return p.watching }, func(key string, count int) {
		if count > 0 {
			fn(key, count)
		}
	})
}

// Mixins

func (m *Meta) AddMixin(mixin any) error {
	if err := m.checkAlive("cannot add mixin %v", mixin); err != nil {
		return err
	}
	if m.mixins == nil {
		m.mixins = mapset.NewThreadUnsafeSet[any]()
	}
	m.mixins.Add(mixin)
	return nil
}

func (m *Meta) HasMixin(mixin any) bool {
	_, ok := findInherited(m, func(p *Meta) (struct{}, bool) {
		return struct{}{}, p.mixins != nil && p.mixins.Contains(mixin)
	})
	return ok
}

func (m *Meta) ForEachMixins(fn func(mixin any)) {
	seen := mapset.NewThreadUnsafeSet[any]()
	for p := m; p != nil; p = p.Parent() {
		if p.mixins == nil {
			continue
		}
		own := p.mixins.ToSlice()
		slices.SortStableFunc(own, func(a, b any) int {
			return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
		})
		for _, mixin := range own {
			if seen.Contains(mixin) {
				continue
			}
			seen.Add(mixin)
			fn(mixin)
		}
	}
}

// Tags

// WritableTags returns the own property tag map, creating it if needed.
func (m *Meta) WritableTags() map[string]*tag.PropertyTag {
	if m.tags == nil {
		m.tags = map[string]*tag.PropertyTag{}
	}
	return m.tags
}

func (m *Meta) ReadableTags() map[string]*tag.PropertyTag { return m.tags }

// WritableTag returns the object-wide tag, creating it with create.
func (m *Meta) WritableTag(create func(*object.Object) *tag.DirtyableTag) (*tag.DirtyableTag, error) {
	if err := m.checkAlive("cannot create a new tag"); err != nil {
		return nil, err
	}
	if m.tag == nil {
		m.tag = create(m.Source())
	}
	return m.tag, nil
}

func (m *Meta) ReadableTag() *tag.DirtyableTag { return m.tag }

// Chains

// WritableChainWatchers returns the own chain watcher registry, creating
// it with create.
func (m *Meta) WritableChainWatchers(create func(*object.Object) any) (any, error) {
	if err := m.checkAlive("cannot create a new chain watcher"); err != nil {
		return nil, err
	}
	if m.chainWatchers == nil {
		m.chainWatchers = create(m.Source())
	}
	return m.chainWatchers, nil
}

func (m *Meta) ReadableChainWatchers() any { return m.chainWatchers }

// WritableChains returns the own chain root, creating it with create and
// seeding it from the parent's chains.
func (m *Meta) WritableChains(create func(*object.Object) Chains) (Chains, error) {
	if err := m.checkAlive("cannot create new chains"); err != nil {
		return nil, err
	}
	if m.chains != nil {
		return m.chains, nil
	}
	chains := create(m.Source())
	if parent := m.Parent(); parent != nil {
		parentChains, err := parent.WritableChains(create)
		if err != nil {
			return nil, err
		}
		parentChains.CopyTo(chains)
	}
	m.chains = chains
	return chains, nil
}

// ReadableChains returns the nearest chain root on the chain.
func (m *Meta) ReadableChains() Chains {
	chains, _ := findInherited(m, func(p *Meta) (Chains, bool) {
		return p.chains, p.chains != nil
	})
	return chains
}
