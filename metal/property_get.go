package metal

import (
	"strings"

	"github.com/delaneyj/metal/object"
)

// Get reads key from obj. A descriptor, when one is visible, produces the
// value; otherwise the stored value is returned, nil when absent. A dotted
// key is read as a path.
func (rs *Runtime) Get(obj *object.Object, key string) any {
	if obj == nil {
		return nil
	}
	if isPath(key) {
		return rs.GetPath(obj, key)
	}

	rs.consumeTag(obj, key)

	if desc := rs.descriptorFor(obj, key, nil); desc != nil {
		return desc.Get(obj, key)
	}
	v, _ := obj.Lookup(key)
	return v
}

// GetPath follows a dotted path from obj. It stops with nil at the first
// segment whose value is not an object.
func (rs *Runtime) GetPath(obj *object.Object, path string) any {
	var current any = obj
	for key := range strings.SplitSeq(path, ".") {
		o, ok := current.(*object.Object)
		if !ok || o == nil {
			return nil
		}
		current = rs.Get(o, key)
	}
	return current
}

// GetProperties reads several keys at once.
func (rs *Runtime) GetProperties(obj *object.Object, keys ...string) map[string]any {
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		values[key] = rs.Get(obj, key)
	}
	return values
}
