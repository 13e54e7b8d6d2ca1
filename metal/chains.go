package metal

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"weak"

	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"go.uber.org/zap"
)

const (
	eachKey  = "@each"
	arrayKey = "[]"
)

// chainWatchers indexes, per key of one object, the chain nodes that read
// that key from it.
type chainWatchers struct {
	nodes map[string][]*chainNode
}

func newChainWatchers(*object.Object) any {
	return &chainWatchers{nodes: map[string][]*chainNode{}}
}

func (w *chainWatchers) add(key string, node *chainNode) {
	w.nodes[key] = append(w.nodes[key], node)
}

func (w *chainWatchers) remove(key string, node *chainNode) {
	nodes := w.nodes[key]
	if i := slices.Index(nodes, node); i >= 0 {
		w.nodes[key] = slices.Delete(nodes, i, i+1)
	}
}

// revalidate rebinds every node reading key after its value was computed.
func (w *chainWatchers) revalidate(key string) {
	w.notify(key, true, nil)
}

// notify tells the nodes reading key that it changed. When cb is given it
// is called once for every (root object, full path) that depends on key.
func (w *chainWatchers) notify(key string, revalidate bool, cb func(obj *object.Object, path string)) {
	nodes := w.nodes[key]
	if len(nodes) == 0 {
		return
	}

	var affected *[]affectedPath
	if cb != nil {
		affected = &[]affectedPath{}
	}
	for _, node := range slices.Clone(nodes) {
		node.notify(revalidate, affected)
	}
	if affected == nil {
		return
	}
	for _, a := range *affected {
		cb(a.obj, a.path)
	}
}

type affectedPath struct {
	obj  *object.Object
	path string
}

// chainNode is one segment of a watched path. The root stands for the
// object whose meta owns the graph; every other node reads its key from the
// value of its parent and registers itself in that object's chain watchers.
// A node below @each reads its key from every member of the list.
type chainNode struct {
	rs     *Runtime
	parent *chainNode
	key    string

	root     weak.Pointer[object.Object]
	watching bool
	objects  []weak.Pointer[object.Object]

	value    any
	hasValue bool

	count  int
	chains map[string]*chainNode
	paths  map[string]int
}

func (rs *Runtime) newRootChainNode(obj *object.Object) meta.Chains {
	return &chainNode{rs: rs, root: weak.Make(obj)}
}

func newChainNode(parent *chainNode, key string) *chainNode {
	n := &chainNode{
		rs:       parent.rs,
		parent:   parent,
		key:      key,
		watching: key != eachKey && key != arrayKey,
	}
	if n.watching {
		n.bind(n.sources())
	}
	return n
}

func (n *chainNode) isRoot() bool { return n.parent == nil }

// sources returns the objects this node reads its key from.
func (n *chainNode) sources() []*object.Object {
	pv := n.parent.Value()
	if n.parent.key == eachKey {
		return members(pv)
	}
	if obj, ok := pv.(*object.Object); ok && obj != nil {
		return []*object.Object{obj}
	}
	return nil
}

func (n *chainNode) bind(objs []*object.Object) {
	n.objects = n.objects[:0]
	for _, obj := range objs {
		n.rs.addChainWatcher(obj, n.key, n)
		n.objects = append(n.objects, weak.Make(obj))
	}
}

func (n *chainNode) unbind() {
	for _, wp := range n.objects {
		if obj := wp.Value(); obj != nil {
			n.rs.removeChainWatcher(obj, n.key, n)
		}
	}
	n.objects = nil
}

func (n *chainNode) bound() []*object.Object {
	objs := make([]*object.Object, 0, len(n.objects))
	for _, wp := range n.objects {
		if obj := wp.Value(); obj != nil {
			objs = append(objs, obj)
		}
	}
	return objs
}

// Value returns the value this node stands for. Computed values are only
// read from the cache: following a path never evaluates a getter.
func (n *chainNode) Value() any {
	switch {
	case n.isRoot():
		return n.root.Value()
	case !n.watching:
		return n.parent.Value()
	}
	if !n.hasValue {
		n.hasValue = true
		n.value = nil
		if n.parent.key != eachKey && len(n.objects) == 1 {
			if obj := n.objects[0].Value(); obj != nil {
				n.value = n.rs.lazyGet(obj, n.key)
			}
		}
	}
	return n.value
}

func (n *chainNode) add(path string) {
	if n.paths == nil {
		n.paths = map[string]int{}
	}
	n.paths[path]++
	key, tail := splitFirstKey(path)
	n.chain(key, tail)
}

func (n *chainNode) remove(path string) {
	if n.paths[path] <= 0 {
		return
	}
	n.paths[path]--
	key, tail := splitFirstKey(path)
	n.unchain(key, tail)
}

func (n *chainNode) chain(key, tail string) {
	if n.chains == nil {
		n.chains = map[string]*chainNode{}
	}
	node := n.chains[key]
	if node == nil {
		node = newChainNode(n, key)
		n.chains[key] = node
	}
	node.count++
	if tail != "" {
		k, t := splitFirstKey(tail)
		node.chain(k, t)
	}
}

func (n *chainNode) unchain(key, tail string) {
	node := n.chains[key]
	if node == nil {
		return
	}
	if tail != "" {
		k, t := splitFirstKey(tail)
		node.unchain(k, t)
	}
	node.count--
	if node.count <= 0 {
		delete(n.chains, key)
		node.Destroy()
	}
}

// Destroy detaches this node and everything below it from the objects they
// watch.
func (n *chainNode) Destroy() {
	for _, key := range slices.Sorted(maps.Keys(n.chains)) {
		n.chains[key].Destroy()
	}
	n.chains = nil
	if n.watching {
		n.unbind()
		n.watching = false
	}
}

// CopyTo replays every live path of this root onto dst.
func (n *chainNode) CopyTo(dst meta.Chains) {
	target := dst.(*chainNode)
	for _, path := range slices.Sorted(maps.Keys(n.paths)) {
		if n.paths[path] > 0 {
			target.add(path)
		}
	}
}

func (n *chainNode) notify(revalidate bool, affected *[]affectedPath) {
	if revalidate && n.watching {
		objs := n.sources()
		if !slices.Equal(objs, n.bound()) {
			n.unbind()
			n.bind(objs)
		}
		n.hasValue = false
		n.value = nil
	}

	for _, key := range slices.Sorted(maps.Keys(n.chains)) {
		if node := n.chains[key]; node != nil {
			node.notify(revalidate, affected)
		}
	}

	if affected != nil && n.parent != nil {
		n.parent.populateAffected(n.key, 1, affected)
	}
}

func (n *chainNode) populateAffected(path string, depth int, affected *[]affectedPath) {
	if !n.isRoot() {
		path = n.key + "." + path
	}
	if n.parent != nil {
		n.parent.populateAffected(path, depth+1, affected)
		return
	}
	if depth > 1 {
		if obj := n.root.Value(); obj != nil {
			*affected = append(*affected, affectedPath{obj: obj, path: path})
		}
	}
}

func splitFirstKey(path string) (key, tail string) {
	key, tail, _ = strings.Cut(path, ".")
	return key, tail
}

// members returns the objects held by a list value.
func members(v any) []*object.Object {
	switch list := v.(type) {
	case nil:
		return nil
	case []*object.Object:
		return slices.DeleteFunc(slices.Clone(list), func(o *object.Object) bool { return o == nil })
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	var objs []*object.Object
	for i := range rv.Len() {
		if obj, ok := rv.Index(i).Interface().(*object.Object); ok && obj != nil {
			objs = append(objs, obj)
		}
	}
	return objs
}

func (rs *Runtime) addChainWatcher(obj *object.Object, key string, node *chainNode) {
	m := rs.Meta(obj)
	w, err := m.WritableChainWatchers(newChainWatchers)
	if err != nil {
		rs.logger.Debug("skipping chain watcher", zap.Stringer("object", obj), zap.String("key", key), zap.Error(err))
		return
	}
	w.(*chainWatchers).add(key, node)
	if err := rs.watchKey(obj, key, m); err != nil {
		rs.logger.Debug("skipping chain watch", zap.Stringer("object", obj), zap.String("key", key), zap.Error(err))
	}
}

func (rs *Runtime) removeChainWatcher(obj *object.Object, key string, node *chainNode) {
	m := rs.ownMeta(obj)
	if m == nil {
		return
	}
	if w, ok := m.ReadableChainWatchers().(*chainWatchers); ok {
		w.remove(key, node)
	}
	if err := rs.unwatchKey(obj, key, m); err != nil {
		rs.logger.Debug("skipping chain unwatch", zap.Stringer("object", obj), zap.String("key", key), zap.Error(err))
	}
}

// lazyGet reads key for path following without evaluating computed
// properties. Prototypes never yield values.
func (rs *Runtime) lazyGet(obj *object.Object, key string) any {
	m := rs.PeekMeta(obj)
	if m != nil && !m.IsInitialized(obj) {
		return nil
	}
	if cp, ok := rs.descriptorFor(obj, key, m).(*ComputedProperty); ok && !cp.volatile {
		v, _ := rs.CachedValueFor(obj, key)
		return v
	}
	return rs.Get(obj, key)
}

func (rs *Runtime) chainsDidChange(obj *object.Object, key string, m *meta.Meta) {
	w, ok := m.ReadableChainWatchers().(*chainWatchers)
	if !ok {
		return
	}
	w.notify(key, true, func(o *object.Object, path string) {
		rs.notifyPropertyChange(o, path, rs.PeekMeta(o))
	})
}
