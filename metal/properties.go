package metal

import (
	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
)

// Descriptor customises how a property is read, written, installed and
// removed. A descriptor lives in the meta of the object it was defined on
// and is inherited by everything derived from it.
type Descriptor interface {
	Get(obj *object.Object, key string) any
	Set(obj *object.Object, key string, value any) (any, error)
	Setup(obj *object.Object, key string, field *Field, m *meta.Meta) error
	Teardown(obj *object.Object, key string, m *meta.Meta) error
}

// WatchAware descriptors are told when their key gains its first watcher
// and loses its last.
type WatchAware interface {
	WillWatch(obj *object.Object, key string, m *meta.Meta)
	DidUnwatch(obj *object.Object, key string, m *meta.Meta)
}

// ChangeAware descriptors are told when their key is notified as changed.
type ChangeAware interface {
	DidChange(obj *object.Object, key string)
}

// DependentKeyed descriptors declare the keys their value is derived from.
type DependentKeyed interface {
	DependentKeys() []string
}

// DefineProperty installs desc as the descriptor for key on obj, tearing
// down whatever descriptor was visible before. A nil desc stores data as a
// plain value instead.
func (rs *Runtime) DefineProperty(obj *object.Object, key string, desc Descriptor, data any) error {
	m := rs.Meta(obj)
	if m.IsMetaDestroyed() {
		return destroyedSetError(obj, key)
	}

	if prev := rs.descriptorFor(obj, key, m); prev != nil {
		if err := prev.Teardown(obj, key, m); err != nil {
			return err
		}
	}

	if desc == nil {
		obj.SetOwn(key, data)
		return nil
	}
	obj.DeleteOwn(key)
	return desc.Setup(obj, key, nil, m)
}

// addDependentKeys registers key as derived from each dependent key of desc
// and starts watching them.
func (rs *Runtime) addDependentKeys(desc DependentKeyed, obj *object.Object, key string, m *meta.Meta) error {
	for _, depKey := range desc.DependentKeys() {
		if err := m.WriteDeps(depKey, key, m.PeekDeps(depKey, key)+1); err != nil {
			return err
		}
		if err := rs.watch(obj, depKey, m); err != nil {
			return err
		}
	}
	return nil
}

// removeDependentKeys undoes addDependentKeys.
func (rs *Runtime) removeDependentKeys(desc DependentKeyed, obj *object.Object, key string, m *meta.Meta) error {
	for _, depKey := range desc.DependentKeys() {
		if err := m.WriteDeps(depKey, key, m.PeekDeps(depKey, key)-1); err != nil {
			return err
		}
		if err := rs.unwatch(obj, depKey, m); err != nil {
			return err
		}
	}
	return nil
}
