package meta_test

import (
	"runtime"
	"testing"

	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekIsAbsentUntilMetaIsRequired(t *testing.T) {
	store := meta.NewStore()
	obj := object.New(nil)

	assert.Nil(t, store.Peek(obj))
	assert.Nil(t, store.Get(obj))

	m := store.Meta(obj)
	require.NotNil(t, m)
	assert.Same(t, m, store.Peek(obj))
	assert.Same(t, m, store.Meta(obj))
	assert.Same(t, obj, m.Source())

	store.Delete(obj)
	assert.Same(t, m, store.Peek(obj))
	assert.True(t, m.IsMetaDestroyed())
	runtime.KeepAlive(obj)
}

func TestPeekFindsInheritedButMetaCreatesOwn(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "Proto")
	inst := object.New(proto)
	protoMeta := store.Meta(proto)

	peeked := store.Peek(inst)
	assert.Same(t, protoMeta, peeked)
	assert.NotSame(t, inst, peeked.Source())

	own := store.Meta(inst)
	assert.NotSame(t, protoMeta, own)
	assert.Same(t, protoMeta, own.Parent())
	assert.Nil(t, protoMeta.Parent())

	// deleting an instance never destroys the prototype's meta
	store.Delete(object.New(proto))
	assert.False(t, protoMeta.IsMetaDestroyed())
}

func TestDescriptorInheritanceAndTombstone(t *testing.T) {
	store := meta.NewStore()
	p := object.NewPrototype(nil, "P")
	c := object.NewPrototype(p, "C")
	inst := object.New(c)

	desc := &struct{ name string }{"fullName"}
	require.NoError(t, store.Meta(p).WriteDescriptors("fullName", desc))

	assert.Same(t, desc, store.DescriptorFor(inst, "fullName"))

	own := &struct{ name string }{"own"}
	require.NoError(t, store.Meta(c).WriteDescriptors("fullName", own))
	assert.Same(t, own, store.DescriptorFor(inst, "fullName"))

	require.NoError(t, store.Meta(c).RemoveDescriptors("fullName"))
	assert.Nil(t, store.DescriptorFor(inst, "fullName"))
	assert.Same(t, desc, store.DescriptorFor(p, "fullName"))

	var keys []string
	store.Meta(inst).ForEachDescriptors(func(key string, _ any) { keys = append(keys, key) })
	assert.Empty(t, keys)
}

func TestForEachDescriptorsShadowing(t *testing.T) {
	store := meta.NewStore()
	p := object.NewPrototype(nil, "P")
	inst := object.New(p)

	require.NoError(t, store.Meta(p).WriteDescriptors("a", "pa"))
	require.NoError(t, store.Meta(p).WriteDescriptors("b", "pb"))
	require.NoError(t, store.Meta(inst).WriteDescriptors("a", "ia"))

	seen := map[string]any{}
	store.Meta(inst).ForEachDescriptors(func(key string, desc any) {
		_, dup := seen[key]
		assert.False(t, dup, key)
		seen[key] = desc
	})
	assert.Equal(t, map[string]any{"a": "ia", "b": "pb"}, seen)
}

func TestDepsAreInheritedAndCounted(t *testing.T) {
	store := meta.NewStore()
	p := object.NewPrototype(nil, "P")
	inst := object.New(p)
	pm, im := store.Meta(p), store.Meta(inst)

	assert.Equal(t, 0, im.PeekDeps("first", "fullName"))
	assert.False(t, im.HasDeps("first"))

	require.NoError(t, pm.WriteDeps("first", "fullName", 1))
	assert.Equal(t, 1, im.PeekDeps("first", "fullName"))
	assert.True(t, im.HasDeps("first"))

	require.NoError(t, im.WriteDeps("first", "fullName", im.PeekDeps("first", "fullName")+1))
	require.NoError(t, im.WriteDeps("first", "initials", 0))
	assert.Equal(t, 2, im.PeekDeps("first", "fullName"))
	assert.Equal(t, 1, pm.PeekDeps("first", "fullName"))

	var derived []string
	im.ForEachInDeps("first", func(key string) { derived = append(derived, key) })
	assert.Equal(t, []string{"fullName"}, derived)
}

func TestWatchingAndMixins(t *testing.T) {
	store := meta.NewStore()
	p := object.NewPrototype(nil, "P")
	inst := object.New(p)
	pm, im := store.Meta(p), store.Meta(inst)

	require.NoError(t, pm.WriteWatching("name", 2))
	assert.Equal(t, 2, im.PeekWatching("name"))
	require.NoError(t, im.WriteWatching("name", 0))
	assert.Equal(t, 0, im.PeekWatching("name"))

	type mixin struct{ name string }
	m1, m2 := &mixin{"one"}, &mixin{"two"}
	require.NoError(t, pm.AddMixin(m1))
	require.NoError(t, im.AddMixin(m2))
	require.NoError(t, im.AddMixin(m1))

	assert.True(t, im.HasMixin(m1))
	assert.True(t, im.HasMixin(m2))
	assert.False(t, pm.HasMixin(m2))

	count := 0
	im.ForEachMixins(func(any) { count++ })
	assert.Equal(t, 2, count)
}

func TestMutationsFailAfterDestroy(t *testing.T) {
	store := meta.NewStore()
	obj := object.New(nil)
	m := store.Meta(obj)
	require.NoError(t, m.WriteDeps("a", "b", 1))

	m.Destroy()
	m.Destroy()

	assert.ErrorIs(t, m.WriteDeps("a", "b", 2), meta.ErrUseAfterDestroy)
	assert.ErrorIs(t, m.WriteDescriptors("a", "x"), meta.ErrUseAfterDestroy)
	assert.ErrorIs(t, m.WriteWatching("a", 1), meta.ErrUseAfterDestroy)
	assert.ErrorIs(t, m.AddMixin("x"), meta.ErrUseAfterDestroy)
	assert.ErrorIs(t, m.AddToListeners("e", nil, "m", false), meta.ErrUseAfterDestroy)
	assert.ErrorIs(t, m.RemoveAllListeners("e"), meta.ErrUseAfterDestroy)
	_, err := m.WritableTag(func(*object.Object) *tag.DirtyableTag { return nil })
	assert.ErrorIs(t, err, meta.ErrUseAfterDestroy)

	// reads stay valid
	assert.Equal(t, 1, m.PeekDeps("a", "b"))
	runtime.KeepAlive(obj)
}

func TestFlagsAreOneWay(t *testing.T) {
	store := meta.NewStore()
	obj := object.New(nil)
	m := store.Meta(obj)

	assert.False(t, m.IsSourceDestroying())
	m.SetSourceDestroying()
	m.SetSourceDestroyed()
	assert.True(t, m.IsSourceDestroying())
	assert.True(t, m.IsSourceDestroyed())
	assert.False(t, m.IsMetaDestroyed())
	runtime.KeepAlive(obj)
}

func TestIsInitialized(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)

	assert.False(t, store.Meta(proto).IsInitialized(proto))
	assert.True(t, store.Meta(inst).IsInitialized(inst))
}

type fakeChains struct {
	destroyed bool
	copied    []*fakeChains
}

func (c *fakeChains) Destroy() { c.destroyed = true }
func (c *fakeChains) CopyTo(dst meta.Chains) {
	c.copied = append(c.copied, dst.(*fakeChains))
}

func TestWritableChainsSeedsFromParentAndDestroys(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)
	create := func(*object.Object) meta.Chains { return &fakeChains{} }

	chains, err := store.Meta(inst).WritableChains(create)
	require.NoError(t, err)

	parent := store.Meta(proto).ReadableChains().(*fakeChains)
	assert.Equal(t, []*fakeChains{chains.(*fakeChains)}, parent.copied)

	store.Delete(inst)
	assert.True(t, chains.(*fakeChains).destroyed)
	assert.False(t, parent.destroyed)
}

func TestWritableChainsLeavesNothingBehindOnError(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)
	created := 0
	create := func(*object.Object) meta.Chains {
		created++
		return &fakeChains{}
	}

	store.Meta(proto)
	store.Delete(proto)
	_, err := store.Meta(inst).WritableChains(create)
	require.ErrorIs(t, err, meta.ErrUseAfterDestroy)
	assert.Nil(t, store.Meta(inst).ReadableChains())

	_, err = store.Meta(inst).WritableChains(create)
	require.ErrorIs(t, err, meta.ErrUseAfterDestroy)
	assert.Equal(t, 2, created)
}

func TestCountersTrackStoreUsage(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)

	store.Meta(proto)
	store.Peek(inst)
	counters := store.Counters()
	assert.EqualValues(t, 1, counters.MetaInstantiated)
	assert.EqualValues(t, 1, counters.MetaCalls)
	assert.EqualValues(t, 2, counters.PeekCalls)
	assert.EqualValues(t, 1, counters.PeekPrototypeWalks)
	assert.Len(t, counters.Named(), 12)

	store.ResetCounters()
	assert.Zero(t, store.Counters().MetaCalls)
}
