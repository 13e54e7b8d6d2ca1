package metal_test

import (
	"fmt"
	"testing"

	"github.com/delaneyj/metal/metal"
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoTrackedComputedRevalidatesByTag(t *testing.T) {
	rs := metal.NewRuntime(metal.WithTrackedProperties(true))
	assert.True(t, rs.TrackedProperties())

	obj := object.New(nil)
	require.NoError(t, rs.DefineProperty(obj, "first", rs.Tracked("Tom"), nil))
	require.NoError(t, rs.DefineProperty(obj, "last", rs.Tracked("Dale"), nil))

	calls := 0
	fullName, err := rs.Computed(metal.Getter(func(o *object.Object, _ string) any {
		calls++
		return fmt.Sprintf("%s %s", rs.Get(o, "first"), rs.Get(o, "last"))
	}), metal.Auto())
	require.NoError(t, err)
	require.NoError(t, rs.DefineProperty(obj, "fullName", fullName, nil))

	assert.Equal(t, "Tom Dale", rs.Get(obj, "fullName"))
	assert.Equal(t, "Tom Dale", rs.Get(obj, "fullName"))
	assert.Equal(t, 1, calls)

	_, err = rs.Set(obj, "first", "Yehuda")
	require.NoError(t, err)
	assert.Equal(t, "Yehuda Dale", rs.Get(obj, "fullName"))
	assert.Equal(t, 2, calls)
}

func TestUntrackedComputedWithoutKeysStaysCached(t *testing.T) {
	rs := metal.NewRuntime(metal.WithTrackedProperties(true))
	obj := object.New(nil)
	require.NoError(t, rs.DefineProperty(obj, "first", rs.Tracked("Tom"), nil))

	calls := 0
	upper, err := rs.Computed(metal.Getter(func(o *object.Object, _ string) any {
		calls++
		return rs.Get(o, "first")
	}))
	require.NoError(t, err)
	require.NoError(t, rs.DefineProperty(obj, "upper", upper, nil))

	assert.Equal(t, "Tom", rs.Get(obj, "upper"))
	_, err = rs.Set(obj, "first", "Yehuda")
	require.NoError(t, err)
	assert.Equal(t, "Tom", rs.Get(obj, "upper"))
	assert.Equal(t, 1, calls)
}

func TestTrackCollectsNestedReads(t *testing.T) {
	rs := metal.NewRuntime(metal.WithTrackedProperties(true))
	obj := object.Create(nil, map[string]any{"a": 1, "b": 2})

	var inner tag.Tag
	outer := rs.Track(func() {
		rs.Get(obj, "a")
		inner = rs.Track(func() { rs.Get(obj, "b") })
	})
	assert.Nil(t, rs.CurrentTracker())

	snapshot := outer.Value()
	innerSnapshot := inner.Value()
	assert.True(t, outer.Validate(snapshot))

	_, err := rs.Set(obj, "b", 3)
	require.NoError(t, err)
	assert.False(t, inner.Validate(innerSnapshot))
	assert.False(t, outer.Validate(snapshot))
}

func TestObjectTagIsDirtiedByAnyChange(t *testing.T) {
	rs := metal.NewRuntime(metal.WithTrackedProperties(true))
	obj := object.New(nil)
	objectTag, err := rs.TagFor(obj)
	require.NoError(t, err)
	snapshot := objectTag.Value()

	_, err = rs.Set(obj, "anything", true)
	require.NoError(t, err)
	assert.False(t, objectTag.Validate(snapshot))
}

func TestTrackedPropertyWithoutTracking(t *testing.T) {
	rs := metal.NewRuntime()
	obj := object.New(nil)
	require.NoError(t, rs.DefineProperty(obj, "count", rs.Tracked(0), nil))

	log := &callLog{}
	require.NoError(t, rs.AddObserver(obj, "count", nil, log.handler("count")))

	assert.Equal(t, 0, rs.Get(obj, "count"))
	_, err := rs.Set(obj, "count", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rs.Get(obj, "count"))
	assert.Equal(t, []string{"count"}, log.calls)
}
