package meta_test

import (
	"testing"

	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handler struct{ name string }

func methods(matches []meta.Match) []any {
	out := make([]any, len(matches))
	for i, m := range matches {
		out[i] = m.Method
	}
	return out
}

func TestFlattenedListenersSeeLateProtoListeners(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	a, b := object.New(proto), object.New(proto)
	l1, l2 := &handler{"l1"}, &handler{"l2"}

	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, l1, false))

	assert.Equal(t, []any{l1}, methods(store.Meta(a).MatchingListeners("x")))
	assert.Equal(t, []any{l1}, methods(store.Meta(b).MatchingListeners("x")))

	// reopening the prototype after both flattened invalidates both
	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, l2, false))
	assert.Equal(t, []any{l1, l2}, methods(store.Meta(a).MatchingListeners("x")))
	assert.Equal(t, []any{l1, l2}, methods(store.Meta(b).MatchingListeners("x")))
	assert.EqualValues(t, 1, store.Counters().ReopensAfterFlatten)
}

func TestInstanceWritesDoNotBumpVersion(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)

	// never flattened: no descendant can be stale
	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, "a", false))
	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, "b", false))
	assert.Zero(t, store.Counters().ReopensAfterFlatten)

	store.Meta(inst).MatchingListeners("x")
	require.NoError(t, store.Meta(inst).AddToListeners("x", nil, "c", false))
	require.NoError(t, store.Meta(inst).AddToListeners("x", nil, "d", false))
	assert.Zero(t, store.Counters().ReopensAfterFlatten)
	assert.Equal(t, []any{"a", "b", "c", "d"}, methods(store.Meta(inst).MatchingListeners("x")))
}

func TestRemovingInheritedListenerOnlyAffectsInstance(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst, sibling := object.New(proto), object.New(proto)
	target := object.New(nil)
	l := &handler{"l"}

	require.NoError(t, store.Meta(proto).AddToListeners("e", target, l, false))
	require.NoError(t, store.Meta(inst).RemoveFromListeners("e", target, l))

	assert.Empty(t, store.Meta(inst).MatchingListeners("e"))
	assert.Equal(t, []any{l}, methods(store.Meta(sibling).MatchingListeners("e")))

	own := store.Meta(proto).OwnListeners()
	require.Len(t, own, 1)
	assert.Equal(t, meta.ListenerAdd, own[0].Kind)
}

func TestRemovingFlattenedInheritedListener(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)

	require.NoError(t, store.Meta(proto).AddToListeners("e", nil, "m", false))
	require.Len(t, store.Meta(inst).MatchingListeners("e"), 1)

	require.NoError(t, store.Meta(inst).RemoveFromListeners("e", nil, "m"))
	assert.Empty(t, store.Meta(inst).MatchingListeners("e"))

	own := store.Meta(inst).OwnListeners()
	require.Len(t, own, 1)
	assert.Equal(t, meta.ListenerRemove, own[0].Kind)

	// re-adding on the instance un-shadows the removal
	require.NoError(t, store.Meta(inst).AddToListeners("e", nil, "m", true))
	matches := store.Meta(inst).MatchingListeners("e")
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Once)
}

func TestRemovingOwnHandlerListenerSplicesIt(t *testing.T) {
	store := meta.NewStore()
	obj := object.New(nil)
	l := &handler{"l"}
	m := store.Meta(obj)

	require.NoError(t, m.AddToListeners("e", nil, l, false))
	require.NoError(t, m.RemoveFromListeners("e", nil, l))
	assert.Empty(t, m.OwnListeners())

	// named methods leave a marker behind
	require.NoError(t, m.AddToListeners("e", nil, "name", false))
	require.NoError(t, m.RemoveFromListeners("e", nil, "name"))
	require.Len(t, m.OwnListeners(), 1)
	assert.Equal(t, meta.ListenerRemove, m.OwnListeners()[0].Kind)
}

func TestRemovingLastProtoListenerReachesFlattenedInstances(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst := object.New(proto)
	l1 := &handler{"l1"}

	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, l1, false))
	assert.Equal(t, []any{l1}, methods(store.Meta(inst).MatchingListeners("x")))

	require.NoError(t, store.Meta(proto).RemoveFromListeners("x", nil, l1))
	assert.Empty(t, store.Meta(proto).MatchingListeners("x"))
	assert.Empty(t, store.Meta(inst).MatchingListeners("x"))
	assert.Empty(t, store.Meta(inst).FlattenedListeners())

	// own listeners survive the rebuilt prefix
	l2 := &handler{"l2"}
	require.NoError(t, store.Meta(inst).AddToListeners("x", nil, l2, false))
	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, l1, false))
	assert.Equal(t, []any{l1, l2}, methods(store.Meta(inst).MatchingListeners("x")))
}

func TestRemoveAllListenersBlocksInherited(t *testing.T) {
	store := meta.NewStore()
	proto := object.NewPrototype(nil, "P")
	inst, sibling := object.New(proto), object.New(proto)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, store.Meta(proto).AddToListeners("x", nil, name, false))
	}
	require.NoError(t, store.Meta(proto).AddToListeners("y", nil, "d", false))
	require.NoError(t, store.Meta(inst).AddToListeners("x", nil, "own", false))
	require.Len(t, store.Meta(inst).MatchingListeners("x"), 4)

	require.NoError(t, store.Meta(inst).RemoveAllListeners("x"))
	assert.Empty(t, store.Meta(inst).MatchingListeners("x"))
	assert.Len(t, store.Meta(inst).MatchingListeners("y"), 1)
	assert.Len(t, store.Meta(sibling).MatchingListeners("x"), 3)

	// a late prototype listener stays blocked
	require.NoError(t, store.Meta(proto).AddToListeners("x", nil, "late", false))
	assert.Empty(t, store.Meta(inst).MatchingListeners("x"))
	assert.Len(t, store.Meta(sibling).MatchingListeners("x"), 4)

	// new own listeners still fire
	require.NoError(t, store.Meta(inst).AddToListeners("x", nil, "again", false))
	assert.Equal(t, []any{"again"}, methods(store.Meta(inst).MatchingListeners("x")))
}

func TestListenersInheritThroughSeveralPrototypes(t *testing.T) {
	store := meta.NewStore()
	base := object.NewPrototype(nil, "Base")
	mid := object.NewPrototype(base, "Mid")
	inst := object.New(mid)

	require.NoError(t, store.Meta(base).AddToListeners("x", nil, "base", false))
	require.NoError(t, store.Meta(mid).AddToListeners("x", nil, "mid", false))
	assert.Equal(t, []any{"base", "mid"}, methods(store.Meta(inst).MatchingListeners("x")))

	require.NoError(t, store.Meta(base).AddToListeners("x", nil, "late", false))
	assert.Equal(t, []any{"base", "late", "mid"}, methods(store.Meta(inst).MatchingListeners("x")))
}

func TestUnknownEventMatchesNothing(t *testing.T) {
	store := meta.NewStore()
	obj := object.New(nil)
	assert.Nil(t, store.Meta(obj).MatchingListeners("nothing"))
}

func TestListenerKindString(t *testing.T) {
	assert.Equal(t, "once", meta.ListenerOnce.String())
	assert.Equal(t, "removeAll", meta.ListenerRemoveAll.String())
}
