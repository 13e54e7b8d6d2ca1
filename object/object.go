package object

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Method is a callable property value. Listeners registered by method name
// resolve to a Method stored on their target.
type Method func(self *Object, args ...any)

// Object is a prototype-chained bag of values. Objects created with
// NewPrototype play the role of a class prototype: their metadata is
// inherited by every object further down the chain.
type Object struct {
	id        uuid.UUID
	name      string
	proto     *Object
	prototype bool
	values    map[string]any
}

// New creates an instance whose prototype is proto. proto may be nil.
func New(proto *Object) *Object {
	return &Object{
		id:    uuid.New(),
		proto: proto,
	}
}

// NewPrototype creates a prototype object inheriting from parent.
func NewPrototype(parent *Object, name string) *Object {
	o := New(parent)
	o.prototype = true
	o.name = name
	return o
}

// Extend creates a prototype inheriting from parent and copies values onto it.
func Extend(parent *Object, name string, values map[string]any) *Object {
	o := NewPrototype(parent, name)
	for k, v := range values {
		o.SetOwn(k, v)
	}
	return o
}

// Create creates an instance of proto and copies values onto it.
func Create(proto *Object, values map[string]any) *Object {
	o := New(proto)
	for k, v := range values {
		o.SetOwn(k, v)
	}
	return o
}

func (o *Object) ID() uuid.UUID { return o.id }

func (o *Object) Proto() *Object { return o.proto }

// IsPrototype reports whether o was created as a prototype.
func (o *Object) IsPrototype() bool { return o.prototype }

// Name returns the nearest name on the prototype chain.
func (o *Object) Name() string {
	for p := o; p != nil; p = p.proto {
		if p.name != "" {
			return p.name
		}
	}
	return "Object"
}

func (o *Object) SetName(name string) { o.name = name }

func (o *Object) GetOwn(key string) (any, bool) {
	if o.values == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) HasOwn(key string) bool {
	_, ok := o.GetOwn(key)
	return ok
}

// Lookup resolves key on o or the first prototype that owns it.
func (o *Object) Lookup(key string) (any, bool) {
	for p := o; p != nil; p = p.proto {
		if v, ok := p.GetOwn(key); ok {
			return v, true
		}
	}
	return nil, false
}

func (o *Object) SetOwn(key string, value any) {
	if o.values == nil {
		o.values = map[string]any{}
	}
	o.values[key] = value
}

func (o *Object) DeleteOwn(key string) bool {
	if _, ok := o.GetOwn(key); !ok {
		return false
	}
	delete(o.values, key)
	return true
}

func (o *Object) OwnKeys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsPrototypeOf reports whether o appears on the prototype chain of other.
func (o *Object) IsPrototypeOf(other *Object) bool {
	for p := other.proto; p != nil; p = p.proto {
		if p == o {
			return true
		}
	}
	return false
}

func (o *Object) String() string {
	return fmt.Sprintf("<%s:%s>", o.Name(), o.id.String()[:8])
}

// Inspect renders v for diagnostics.
func Inspect(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case *Object:
		return v.String()
	case string:
		return fmt.Sprintf("%q", v)
	case []*Object:
		parts := make([]string, len(v))
		for i, o := range v {
			parts[i] = o.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", v)
	}
}
