package metal

import (
	"strings"

	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
)

func isPath(key string) bool { return strings.Contains(key, ".") }

// Watch starts watching key on obj. A dotted path watches every object
// along it and follows them as intermediate values are replaced.
func (rs *Runtime) Watch(obj *object.Object, key string) error {
	return rs.watch(obj, key, rs.Meta(obj))
}

func (rs *Runtime) Unwatch(obj *object.Object, key string) error {
	return rs.unwatch(obj, key, rs.ownMeta(obj))
}

// IsWatching reports whether key has at least one watcher visible from obj.
func (rs *Runtime) IsWatching(obj *object.Object, key string) bool {
	return rs.WatcherCount(obj, key) > 0
}

func (rs *Runtime) WatcherCount(obj *object.Object, key string) int {
	m := rs.PeekMeta(obj)
	if m == nil {
		return 0
	}
	return m.PeekWatching(key)
}

func (rs *Runtime) watch(obj *object.Object, key string, m *meta.Meta) error {
	if isPath(key) {
		return rs.watchPath(obj, key, m)
	}
	return rs.watchKey(obj, key, m)
}

func (rs *Runtime) unwatch(obj *object.Object, key string, m *meta.Meta) error {
	if isPath(key) {
		return rs.unwatchPath(obj, key, m)
	}
	return rs.unwatchKey(obj, key, m)
}

func (rs *Runtime) watchKey(obj *object.Object, key string, m *meta.Meta) error {
	count := m.PeekWatching(key)
	if err := m.WriteWatching(key, count+1); err != nil {
		return err
	}
	if count == 0 {
		if desc, ok := rs.descriptorFor(obj, key, m).(WatchAware); ok {
			desc.WillWatch(obj, key, m)
		}
	}
	return nil
}

func (rs *Runtime) unwatchKey(obj *object.Object, key string, m *meta.Meta) error {
	if m == nil || m.IsSourceDestroyed() || m.IsMetaDestroyed() {
		return nil
	}
	switch count := m.PeekWatching(key); {
	case count == 1:
		if err := m.WriteWatching(key, 0); err != nil {
			return err
		}
		if desc, ok := rs.descriptorFor(obj, key, m).(WatchAware); ok {
			desc.DidUnwatch(obj, key, m)
		}
	case count > 1:
		return m.WriteWatching(key, count-1)
	}
	return nil
}

func (rs *Runtime) watchPath(obj *object.Object, path string, m *meta.Meta) error {
	count := m.PeekWatching(path)
	if err := m.WriteWatching(path, count+1); err != nil {
		return err
	}
	if count == 0 {
		chains, err := m.WritableChains(rs.newRootChainNode)
		if err != nil {
			return err
		}
		chains.(*chainNode).add(path)
	}
	return nil
}

func (rs *Runtime) unwatchPath(obj *object.Object, path string, m *meta.Meta) error {
	if m == nil || m.IsMetaDestroyed() {
		return nil
	}
	switch count := m.PeekWatching(path); {
	case count == 1:
		if err := m.WriteWatching(path, 0); err != nil {
			return err
		}
		chains, err := m.WritableChains(rs.newRootChainNode)
		if err != nil {
			return err
		}
		chains.(*chainNode).remove(path)
	case count > 1:
		return m.WriteWatching(path, count-1)
	}
	return nil
}
