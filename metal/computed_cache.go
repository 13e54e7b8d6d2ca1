package metal

import (
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/tag"
)

// cache holds the computed values of one object, keyed by property name,
// together with the tag revision each value was validated at.
type cache struct {
	values    map[string]any
	revisions map[string]tag.Revision
}

func (c *cache) get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *cache) set(key string, value any) {
	if c.values == nil {
		c.values = map[string]any{}
	}
	c.values[key] = value
}

func (c *cache) delete(key string) bool {
	if _, ok := c.values[key]; !ok {
		return false
	}
	delete(c.values, key)
	delete(c.revisions, key)
	return true
}

func (c *cache) lastRevision(key string) tag.Revision {
	return c.revisions[key]
}

func (c *cache) setLastRevision(key string, rev tag.Revision) {
	if c.revisions == nil {
		c.revisions = map[string]tag.Revision{}
	}
	c.revisions[key] = rev
}

func (rs *Runtime) cacheFor(obj *object.Object) *cache {
	if c, ok := rs.caches.Get(obj); ok {
		return c
	}
	c := &cache{}
	rs.caches.Set(obj, c)
	return c
}

func (rs *Runtime) peekCacheFor(obj *object.Object) *cache {
	c, _ := rs.caches.Get(obj)
	return c
}

// CachedValueFor returns the cached computed value of key on obj without
// evaluating anything.
func (rs *Runtime) CachedValueFor(obj *object.Object, key string) (any, bool) {
	c := rs.peekCacheFor(obj)
	if c == nil {
		return nil, false
	}
	return c.get(key)
}
