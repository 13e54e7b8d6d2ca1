package object_test

import (
	"testing"

	"github.com/delaneyj/metal/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupWalksPrototypes(t *testing.T) {
	base := object.Extend(nil, "Base", map[string]any{"a": 1, "b": 2})
	sub := object.Extend(base, "Sub", map[string]any{"b": 3})
	inst := object.Create(sub, map[string]any{"c": 4})

	for key, expected := range map[string]int{"a": 1, "b": 3, "c": 4} {
		v, ok := inst.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, expected, v, key)
	}

	_, ok := inst.Lookup("missing")
	assert.False(t, ok)
	assert.False(t, inst.HasOwn("a"))
	assert.True(t, base.IsPrototypeOf(inst))
	assert.False(t, inst.IsPrototypeOf(base))
}

func TestPrototypeFlagAndName(t *testing.T) {
	proto := object.NewPrototype(nil, "Person")
	inst := object.New(proto)

	assert.True(t, proto.IsPrototype())
	assert.False(t, inst.IsPrototype())
	assert.Equal(t, "Person", inst.Name())
	assert.Contains(t, inst.String(), "<Person:")
	assert.NotEqual(t, proto.ID(), inst.ID())
}

func TestDeleteOwn(t *testing.T) {
	o := object.Create(nil, map[string]any{"x": 1})
	assert.True(t, o.DeleteOwn("x"))
	assert.False(t, o.DeleteOwn("x"))
	assert.Empty(t, o.OwnKeys())
}
