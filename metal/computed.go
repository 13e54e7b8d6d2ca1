package metal

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"

	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
)

// Getter computes the value of key on obj.
type Getter func(obj *object.Object, key string) any

// Setter stores value for key on obj and returns the value to cache. cached
// is the value cached before the set, nil when there was none.
type Setter func(obj *object.Object, key string, value, cached any) (any, error)

// Accessors configures a computed property with a getter and a setter.
// At least one of them must be set.
type Accessors struct {
	Get Getter
	Set Setter
}

// ComputedOption modifies a computed property at definition time.
type ComputedOption func(cp *ComputedProperty) error

// ReadOnly makes every set fail instead of overriding the property.
func ReadOnly() ComputedOption {
	return func(cp *ComputedProperty) error {
		if cp.setter != nil {
			return fmt.Errorf("computed properties that define a setter cannot be read-only: %w", ErrInvalidOperation)
		}
		cp.readOnly = true
		return nil
	}
}

// Volatile disables caching: the getter runs on every read and no change
// notification is ever sent. Deprecated behaviour, reported when used.
func Volatile() ComputedOption {
	return func(cp *ComputedProperty) error {
		cp.volatile = true
		cp.rs.deprecate("computed-property.volatile", "4.0.0",
			"setting a computed property as volatile has been deprecated, use a plain getter instead")
		return nil
	}
}

// Auto marks a property whose dependencies are discovered by tracking tag
// reads instead of being declared.
func Auto() ComputedOption {
	return func(cp *ComputedProperty) error {
		cp.auto = true
		return nil
	}
}

// WithMeta attaches arbitrary metadata to the property.
func WithMeta(v any) ComputedOption {
	return func(cp *ComputedProperty) error {
		cp.meta = v
		return nil
	}
}

// Field describes the member a computed property decorates: either an
// accessor pair or an initialised field.
type Field struct {
	Get         Getter
	Set         func(obj *object.Object, key string, value any) any
	Value       any
	Initializer func() any

	decorated bool
}

// ComputedProperty derives a property from a getter and caches the result
// per object until one of its dependent keys changes.
type ComputedProperty struct {
	rs *Runtime

	dependentKeys []string
	getter        Getter
	setter        Setter
	hasConfig     bool

	volatile bool
	readOnly bool
	auto     bool
	meta     any

	// object currently running the setter; its own change must not
	// invalidate the value being stored
	suspended *object.Object
}

var deepEach = regexp.MustCompile(`\.@each\.[^.]+\.`)

// Computed creates a computed property. Arguments are dependent keys
// (brace patterns allowed), followed by at most one Getter, Accessors or
// map with "get" and "set" entries. ComputedOption values may appear
// anywhere. Without a getter the property can only be used as a decorator
// of a field providing accessors.
func (rs *Runtime) Computed(args ...any) (*ComputedProperty, error) {
	cp := &ComputedProperty{rs: rs}

	var (
		keys []string
		opts []ComputedOption
	)
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			if cp.hasConfig {
				return nil, fmt.Errorf("computed dependent key `%s` must come before the getter: %w", v, ErrInvalidOperation)
			}
			keys = append(keys, v)
		case ComputedOption:
			opts = append(opts, v)
		case *ComputedProperty:
			return nil, fmt.Errorf("computed cannot be passed another computed property: %w", ErrInvalidOperation)
		default:
			if cp.hasConfig {
				return nil, fmt.Errorf("computed accepts a single getter or config, got another %T: %w", arg, ErrInvalidOperation)
			}
			if err := cp.configure(arg); err != nil {
				return nil, err
			}
		}
	}

	if err := cp.property(keys...); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(cp); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

func (cp *ComputedProperty) configure(config any) error {
	cp.hasConfig = true
	switch c := config.(type) {
	case Getter:
		cp.getter = c
	case func(*object.Object, string) any:
		cp.getter = c
	case Accessors:
		return cp.configureAccessors(c.Get, c.Set)
	case *Accessors:
		return cp.configureAccessors(c.Get, c.Set)
	case map[string]any:
		var acc Accessors
		for key, v := range c {
			switch key {
			case "get":
				switch fn := v.(type) {
				case Getter:
					acc.Get = fn
				case func(*object.Object, string) any:
					acc.Get = fn
				default:
					return fmt.Errorf("computed `get` must be a getter, got %T: %w", v, ErrInvalidOperation)
				}
			case "set":
				switch fn := v.(type) {
				case Setter:
					acc.Set = fn
				case func(*object.Object, string, any, any) (any, error):
					acc.Set = fn
				default:
					return fmt.Errorf("computed `set` must be a setter, got %T: %w", v, ErrInvalidOperation)
				}
			default:
				return fmt.Errorf("config object passed to computed can only contain `get` and `set` keys, found `%s`: %w", key, ErrInvalidOperation)
			}
		}
		return cp.configureAccessors(acc.Get, acc.Set)
	default:
		return fmt.Errorf("computed expects a getter or an accessor config as last argument, got %T: %w", config, ErrInvalidOperation)
	}
	return nil
}

func (cp *ComputedProperty) configureAccessors(get Getter, set Setter) error {
	if get == nil && set == nil {
		return fmt.Errorf("computed config must have a getter or a setter: %w", ErrInvalidOperation)
	}
	if get == nil {
		get = func(*object.Object, string) any { return nil }
	}
	cp.getter = get
	cp.setter = set
	return nil
}

// Property replaces the dependent keys. Deprecated behaviour: pass the keys
// to Computed instead.
func (cp *ComputedProperty) Property(keys ...string) (*ComputedProperty, error) {
	cp.rs.deprecate("computed-property.property", "4.0.0",
		"setting dependency keys with property() is deprecated, pass them to computed instead")
	if err := cp.property(keys...); err != nil {
		return nil, err
	}
	return cp, nil
}

func (cp *ComputedProperty) property(patterns ...string) error {
	var keys []string
	for _, pattern := range patterns {
		if deepEach.MatchString(pattern) {
			cp.rs.warn("computed-property.deep-each",
				fmt.Sprintf("dependent keys containing @each only work one level deep, `%s` is not supported", pattern))
			return fmt.Errorf("dependent key `%s` uses @each more than one level deep: %w", pattern, ErrUnsupportedDependencyPath)
		}
		if err := ExpandProperties(pattern, func(key string) {
			keys = append(keys, key)
		}); err != nil {
			return err
		}
	}
	cp.dependentKeys = keys
	return nil
}

func (cp *ComputedProperty) DependentKeys() []string { return slices.Clone(cp.dependentKeys) }

func (cp *ComputedProperty) IsVolatile() bool { return cp.volatile }
func (cp *ComputedProperty) IsReadOnly() bool { return cp.readOnly }

func (cp *ComputedProperty) Meta() any { return cp.meta }

func (cp *ComputedProperty) SetMeta(v any) *ComputedProperty {
	cp.meta = v
	return cp
}

// Get returns the cached value of key on obj, computing and caching it when
// absent or, with tracked properties, when its tag is no longer valid.
func (cp *ComputedProperty) Get(obj *object.Object, key string) any {
	rs := cp.rs
	if cp.volatile {
		return cp.getter(obj, key)
	}
	if m := rs.ownMeta(obj); m != nil && m.IsMetaDestroyed() {
		return cp.getter(obj, key)
	}

	c := rs.cacheFor(obj)
	cached, hadCached := c.get(key)
	if rs.tracked {
		propertyTag := rs.TagForProperty(obj, key)
		if hadCached {
			if !cp.auto && len(cp.dependentKeys) == 0 {
				return cached
			}
			if propertyTag.Validate(c.lastRevision(key)) {
				return cached
			}
		}

		var ret any
		combined := rs.Track(func() { ret = cp.getter(obj, key) })
		propertyTag.Update(combined)
		c.setLastRevision(key, propertyTag.Value())
		return cp.store(obj, key, c, ret, hadCached)
	}

	if hadCached {
		return cached
	}
	return cp.store(obj, key, c, cp.getter(obj, key), false)
}

func (cp *ComputedProperty) store(obj *object.Object, key string, c *cache, ret any, hadCached bool) any {
	rs := cp.rs
	c.set(key, ret)

	m := rs.Meta(obj)
	if w, ok := m.ReadableChainWatchers().(*chainWatchers); ok {
		w.revalidate(key)
	}
	if !hadCached {
		if err := rs.addDependentKeys(cp, obj, key, m); err != nil {
			rs.logger.Warn("registering dependent keys", zap.Stringer("object", obj), zap.String("key", key), zap.Error(err))
		}
	}
	return ret
}

// Set writes through the setter and caches what it returns. Without a
// setter the property is replaced by the value, unless that is disabled.
func (cp *ComputedProperty) Set(obj *object.Object, key string, value any) (any, error) {
	if cp.readOnly {
		return nil, fmt.Errorf("cannot set read-only property `%s` on object: %s: %w", key, obj, ErrInvalidOperation)
	}
	if cp.setter == nil {
		return cp.clobberSet(obj, key, value)
	}
	if cp.volatile {
		return cp.setter(obj, key, value, nil)
	}
	return cp.setWithSuspend(obj, key, value)
}

func (cp *ComputedProperty) clobberSet(obj *object.Object, key string, value any) (any, error) {
	rs := cp.rs
	if !rs.clobberSet {
		return nil, fmt.Errorf("cannot override the computed property `%s` on %s: %w", key, obj, ErrInvalidOperation)
	}
	rs.deprecate("computed-property.override", "4.0.0",
		fmt.Sprintf("the `%s` computed property was just overridden, use a setter or mark it read-only", key))
	rs.logger.Debug("clobbering computed property", zap.Stringer("object", obj), zap.String("key", key))
	capitan.Emit(context.Background(), ComputedClobbered,
		KeyObject.Field(obj.String()),
		KeyProperty.Field(key),
	)

	cached, _ := rs.CachedValueFor(obj, key)
	if err := rs.DefineProperty(obj, key, nil, cached); err != nil {
		return nil, err
	}
	return rs.Set(obj, key, value)
}

func (cp *ComputedProperty) setWithSuspend(obj *object.Object, key string, value any) (any, error) {
	old := cp.suspended
	cp.suspended = obj
	defer func() { cp.suspended = old }()
	return cp.set(obj, key, value)
}

func (cp *ComputedProperty) set(obj *object.Object, key string, value any) (any, error) {
	rs := cp.rs
	m := rs.Meta(obj)
	if m.IsMetaDestroyed() {
		return nil, destroyedSetError(obj, key)
	}

	c := rs.cacheFor(obj)
	cached, hadCached := c.get(key)
	ret, err := cp.setter(obj, key, value, cached)
	if err != nil {
		return nil, err
	}
	if hadCached && sameValue(cached, ret) {
		return ret, nil
	}

	if !hadCached {
		if err := rs.addDependentKeys(cp, obj, key, m); err != nil {
			return nil, err
		}
	}
	c.set(key, ret)
	rs.notifyPropertyChange(obj, key, m)
	if rs.tracked {
		c.setLastRevision(key, rs.TagForProperty(obj, key).Value())
	}
	return ret, nil
}

// DidChange drops the cached value of key on obj and stops watching its
// dependencies until the next read.
func (cp *ComputedProperty) DidChange(obj *object.Object, key string) {
	if cp.volatile || cp.suspended == obj {
		return
	}
	rs := cp.rs
	m := rs.ownMeta(obj)
	if m == nil || m.IsMetaDestroyed() {
		return
	}
	if err := cp.release(obj, key, m); err != nil {
		rs.logger.Warn("releasing dependent keys", zap.Stringer("object", obj), zap.String("key", key), zap.Error(err))
	}
}

// release drops the cached value of key on obj and the dependent key
// watches registered when it was cached.
func (cp *ComputedProperty) release(obj *object.Object, key string, m *meta.Meta) error {
	if cp.volatile {
		return nil
	}
	if c := cp.rs.peekCacheFor(obj); c != nil && c.delete(key) {
		return cp.rs.removeDependentKeys(cp, obj, key, m)
	}
	return nil
}

func (cp *ComputedProperty) Setup(obj *object.Object, key string, field *Field, m *meta.Meta) error {
	if err := cp.checkField(obj, key, field); err != nil {
		return err
	}
	return m.WriteDescriptors(key, cp)
}

func (cp *ComputedProperty) Teardown(obj *object.Object, key string, m *meta.Meta) error {
	if err := cp.release(obj, key, m); err != nil {
		return err
	}
	return m.RemoveDescriptors(key)
}

// checkField validates the member the property is applied to and adopts its
// accessors when the property was created without a config.
func (cp *ComputedProperty) checkField(obj *object.Object, key string, field *Field) error {
	if field == nil {
		if !cp.hasConfig {
			return fmt.Errorf("attempted to use @computed on %s.%s, but it did not have a getter or a setter: %w", obj.Name(), key, ErrInvalidOperation)
		}
		return nil
	}

	if field.decorated {
		return fmt.Errorf("only one computed property decorator can be applied to %s.%s: %w", obj.Name(), key, ErrInvalidOperation)
	}
	if field.Value != nil && reflect.TypeOf(field.Value).Kind() == reflect.Func {
		return fmt.Errorf("@computed can only be used on accessors or fields, attempted to use it with %s.%s but that was a method: %w", obj.Name(), key, ErrInvalidOperation)
	}
	if field.Initializer != nil {
		return fmt.Errorf("@computed can only be used on empty fields, %s.%s has an initial value: %w", obj.Name(), key, ErrInvalidOperation)
	}

	hasAccessors := field.Get != nil || field.Set != nil
	if cp.hasConfig {
		if hasAccessors {
			return fmt.Errorf("attempted to apply a computed property that already has a getter/setter to %s.%s, which is a getter/setter: %w", obj.Name(), key, ErrInvalidOperation)
		}
		return nil
	}
	if !hasAccessors {
		return fmt.Errorf("attempted to use @computed on %s.%s, but it did not have a getter or a setter: %w", obj.Name(), key, ErrInvalidOperation)
	}

	get, set := field.Get, field.Set
	if cp.readOnly && set != nil {
		return fmt.Errorf("computed properties that define a setter cannot be read-only, %s.%s has a setter: %w", obj.Name(), key, ErrInvalidOperation)
	}
	if get == nil {
		get = func(*object.Object, string) any { return nil }
	}
	cp.getter = get
	if set != nil {
		cp.setter = func(obj *object.Object, key string, value, _ any) (any, error) {
			if ret := set(obj, key, value); ret != nil {
				return ret, nil
			}
			return get(obj, key), nil
		}
	}
	cp.hasConfig = true
	return nil
}

// Decorate applies the property to key of target as a decorator would. field
// is the member being decorated, nil when used classically. The returned
// field reads and writes through the property.
func (cp *ComputedProperty) Decorate(target *object.Object, key string, field *Field) (*Field, error) {
	m := cp.rs.Meta(target)
	if prev := cp.rs.descriptorFor(target, key, m); prev != nil {
		if err := prev.Teardown(target, key, m); err != nil {
			return nil, err
		}
	}
	if err := cp.Setup(target, key, field, m); err != nil {
		return nil, err
	}
	return &Field{
		Get: cp.Get,
		Set: func(obj *object.Object, key string, value any) any {
			ret, err := cp.rs.Set(obj, key, value)
			if err != nil {
				cp.rs.logger.Warn("decorated set failed", zap.String("key", key), zap.Error(err))
			}
			return ret
		},
		decorated: true,
	}, nil
}
