package metal

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/delaneyj/metal/object"
)

// Set writes value to key on obj and returns the value actually stored.
// Plain values notify only when they differ from the previous value.
// A dotted key sets the last segment of the path.
func (rs *Runtime) Set(obj *object.Object, key string, value any) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("cannot set `%s` on nil: %w", key, ErrInvalidOperation)
	}
	if isPath(key) {
		return rs.SetPath(obj, key, value)
	}

	m := rs.ownMeta(obj)
	if m != nil && (m.IsSourceDestroyed() || m.IsMetaDestroyed()) {
		return nil, destroyedSetError(obj, key)
	}

	if desc := rs.descriptorFor(obj, key, nil); desc != nil {
		return desc.Set(obj, key, value)
	}

	current, _ := obj.Lookup(key)
	obj.SetOwn(key, value)
	if !sameValue(current, value) {
		rs.notifyPropertyChange(obj, key, rs.PeekMeta(obj))
	}
	return value, nil
}

// SetPath sets the last segment of path on the object the rest of the path
// leads to.
func (rs *Runtime) SetPath(obj *object.Object, path string, value any) (any, error) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return rs.Set(obj, path, value)
	}
	root, key := path[:i], path[i+1:]
	if key == "" {
		return nil, fmt.Errorf("property set failed: `%s` has an empty key: %w", path, ErrInvalidOperation)
	}
	target, ok := rs.GetPath(obj, root).(*object.Object)
	if !ok || target == nil {
		return nil, fmt.Errorf("property set failed: object in path `%s` could not be found: %w", root, ErrInvalidOperation)
	}
	return rs.Set(target, key, value)
}

// SetProperties sets several keys at once with observers deferred until
// all of them are written.
func (rs *Runtime) SetProperties(obj *object.Object, values map[string]any) (err error) {
	rs.ChangeProperties(func() {
		for _, key := range slices.Sorted(maps.Keys(values)) {
			if _, err = rs.Set(obj, key, values[key]); err != nil {
				return
			}
		}
	})
	return err
}

func destroyedSetError(obj *object.Object, key string) error {
	return fmt.Errorf("calling set on destroyed object: %s.%s: %w", obj, key, ErrUseAfterDestroy)
}

// sameValue compares two property values. Values that cannot be compared
// are treated as different.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}
