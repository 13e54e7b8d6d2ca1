package metal

import (
	"context"

	"github.com/delaneyj/metal/object"
	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
)

// Destroy tears obj down: it stops delivering observers, releases the
// dependent keys of its cached computed properties, drops its computed cache
// and destroys its meta. Later sets fail with ErrUseAfterDestroy.
// Destroying twice is a no-op.
func (rs *Runtime) Destroy(obj *object.Object) {
	m := rs.Meta(obj)
	if m.IsSourceDestroying() {
		return
	}
	m.SetSourceDestroying()
	rs.SendEvent(obj, "willDestroy", obj)

	m.ForEachDescriptors(func(key string, desc any) {
		cp, ok := desc.(*ComputedProperty)
		if !ok {
			return
		}
		if err := cp.release(obj, key, m); err != nil {
			rs.logger.Debug("releasing computed property", zap.Stringer("object", obj), zap.String("key", key), zap.Error(err))
		}
	})
	rs.caches.Delete(obj)
	m.SetSourceDestroyed()
	rs.DeleteMeta(obj)

	rs.logger.Debug("object destroyed", zap.Stringer("object", obj))
	capitan.Emit(context.Background(), ObjectDestroyed, KeyObject.Field(obj.String()))
}

// IsDestroying reports whether Destroy has started on obj.
func (rs *Runtime) IsDestroying(obj *object.Object) bool {
	m := rs.ownMeta(obj)
	return m != nil && m.IsSourceDestroying()
}

// IsDestroyed reports whether obj has been destroyed.
func (rs *Runtime) IsDestroyed(obj *object.Object) bool {
	m := rs.ownMeta(obj)
	return m != nil && m.IsSourceDestroyed()
}
