package metal

import (
	"fmt"
	"reflect"

	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"go.uber.org/zap"
)

// Handler is a listener callback. Handlers are compared by pointer, so keep
// the pointer around to remove the listener later.
type Handler struct {
	fn func(target any, args ...any)
}

func NewHandler(fn func(target any, args ...any)) *Handler {
	return &Handler{fn: fn}
}

// AddListener registers method to run when event is sent to obj. method is
// either a *Handler or the name of an object.Method looked up on target at
// dispatch time. A nil target means obj itself.
func (rs *Runtime) AddListener(obj *object.Object, event string, target, method any, once bool) error {
	if err := checkListener(event, target, method); err != nil {
		return err
	}
	return rs.Meta(obj).AddToListeners(event, target, method, once)
}

// RemoveListener removes one listener from obj, including one inherited
// from a prototype, without affecting the prototype.
func (rs *Runtime) RemoveListener(obj *object.Object, event string, target, method any) error {
	if err := checkListener(event, target, method); err != nil {
		return err
	}
	return rs.Meta(obj).RemoveFromListeners(event, target, method)
}

// RemoveAllListeners removes every listener for event from obj, including
// the ones it inherits.
func (rs *Runtime) RemoveAllListeners(obj *object.Object, event string) error {
	return rs.Meta(obj).RemoveAllListeners(event)
}

// HasListeners reports whether sending event to obj would call anything.
func (rs *Runtime) HasListeners(obj *object.Object, event string) bool {
	m := rs.PeekMeta(obj)
	return m != nil && len(m.MatchingListeners(event)) > 0
}

// SendEvent calls every listener of event on obj in registration order and
// reports whether there was any. Once listeners are removed before they run.
func (rs *Runtime) SendEvent(obj *object.Object, event string, params ...any) bool {
	m := rs.PeekMeta(obj)
	if m == nil {
		return false
	}
	matches := m.MatchingListeners(event)
	if len(matches) == 0 {
		return false
	}

	for _, l := range matches {
		if l.Once {
			if err := rs.RemoveListener(obj, event, l.Target, l.Method); err != nil {
				rs.logger.Warn("removing once listener", zap.String("event", event), zap.Error(err))
			}
		}
		rs.dispatch(obj, event, l, params)
	}
	return true
}

func (rs *Runtime) dispatch(obj *object.Object, event string, l meta.Match, params []any) {
	target := l.Target
	if target == nil {
		target = obj
	}

	switch method := l.Method.(type) {
	case *Handler:
		method.fn(target, params...)
	case string:
		self, ok := target.(*object.Object)
		if !ok {
			rs.logger.Warn("listener target has no methods", zap.String("event", event), zap.String("method", method))
			return
		}
		fn, ok := lookupMethod(self, method)
		if !ok {
			rs.logger.Warn("listener method not found",
				zap.String("event", event),
				zap.String("method", method),
				zap.Stringer("target", self),
			)
			return
		}
		fn(self, params...)
	}
}

func lookupMethod(obj *object.Object, name string) (object.Method, bool) {
	v, ok := obj.Lookup(name)
	if !ok {
		return nil, false
	}
	switch fn := v.(type) {
	case object.Method:
		return fn, true
	case func(*object.Object, ...any):
		return fn, true
	}
	return nil, false
}

func checkListener(event string, target, method any) error {
	if event == "" {
		return fmt.Errorf("listener needs an event name: %w", ErrInvalidOperation)
	}
	switch method.(type) {
	case *Handler, string:
	default:
		return fmt.Errorf("listener method for `%s` must be a *Handler or a method name, got %T: %w", event, method, ErrInvalidOperation)
	}
	if target != nil && !reflect.TypeOf(target).Comparable() {
		return fmt.Errorf("listener target for `%s` must be comparable, got %T: %w", event, target, ErrInvalidOperation)
	}
	return nil
}

func changeEvent(key string) string { return key + ":change" }

// AddObserver runs method whenever key on obj changes. key may be a path.
// The listener is called with the sender and the key.
func (rs *Runtime) AddObserver(obj *object.Object, key string, target, method any) error {
	if err := rs.AddListener(obj, changeEvent(key), target, method, false); err != nil {
		return err
	}
	return rs.Watch(obj, key)
}

func (rs *Runtime) RemoveObserver(obj *object.Object, key string, target, method any) error {
	if err := rs.RemoveListener(obj, changeEvent(key), target, method); err != nil {
		return err
	}
	return rs.Unwatch(obj, key)
}

func (rs *Runtime) notifyObservers(obj *object.Object, key string, m *meta.Meta) {
	if m.IsSourceDestroying() {
		return
	}
	event := changeEvent(key)
	if rs.deferred > 0 {
		rs.observers.add(obj, key, event)
		return
	}
	rs.SendEvent(obj, event, obj, key)
}
