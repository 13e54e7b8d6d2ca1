package metal

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/metal/meta"
	"github.com/delaneyj/metal/object"
	"github.com/delaneyj/metal/tag"
	"github.com/delaneyj/metal/weakmap"
	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
)

// Deprecation describes a deprecated behaviour that was just used. It is
// reported, never rejected.
type Deprecation struct {
	ID      string
	Message string
	Until   string
}

type Option func(*Runtime)

// WithStore shares a meta store between runtimes.
func WithStore(store *meta.Store) Option {
	return func(rs *Runtime) { rs.store = store }
}

// WithTrackedProperties enables revision tag validation of computed caches.
func WithTrackedProperties(enabled bool) Option {
	return func(rs *Runtime) { rs.tracked = enabled }
}

// WithClobberSet controls whether setting a computed property without a
// setter replaces it with a plain value. When disabled such a set fails
// with ErrInvalidOperation.
func WithClobberSet(enabled bool) Option {
	return func(rs *Runtime) { rs.clobberSet = enabled }
}

func WithLogger(logger *zap.Logger) Option {
	return func(rs *Runtime) { rs.logger = logger }
}

// WithDeprecationHandler installs a synchronous callback invoked for every
// deprecation, in addition to the log line and the emitted signal.
func WithDeprecationHandler(fn func(Deprecation)) Option {
	return func(rs *Runtime) { rs.onDeprecation = fn }
}

// Runtime owns the observation state shared by a set of objects: the meta
// store, computed value caches, the tag clock and the change propagation
// bookkeeping. It is not safe for concurrent use; getters and setters may
// re-enter it.
type Runtime struct {
	store  *meta.Store
	caches *weakmap.Map[object.Object, *cache]
	clock  *tag.Clock

	tracked        bool
	clobberSet     bool
	currentTracker *tag.Tracker

	deferred  int
	observers *observerSet
	didSeen   map[*object.Object]mapset.Set[string]

	logger        *zap.Logger
	onDeprecation func(Deprecation)
}

func NewRuntime(opts ...Option) *Runtime {
	rs := &Runtime{
		caches:     weakmap.New[object.Object, *cache](),
		clock:      tag.NewClock(),
		clobberSet: true,
		observers:  newObserverSet(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.store == nil {
		rs.store = meta.NewStore()
	}
	return rs
}

func (rs *Runtime) Store() *meta.Store { return rs.store }

func (rs *Runtime) Clock() *tag.Clock { return rs.clock }

func (rs *Runtime) TrackedProperties() bool { return rs.tracked }

// Meta returns the meta owned by obj, creating it if needed.
func (rs *Runtime) Meta(obj *object.Object) *meta.Meta { return rs.store.Meta(obj) }

// PeekMeta returns the meta of obj or of the nearest prototype that has one.
func (rs *Runtime) PeekMeta(obj *object.Object) *meta.Meta { return rs.store.Peek(obj) }

// DeleteMeta destroys the meta owned by obj.
func (rs *Runtime) DeleteMeta(obj *object.Object) { rs.store.Delete(obj) }

// DescriptorFor returns the descriptor visible for key on obj, or nil.
func (rs *Runtime) DescriptorFor(obj *object.Object, key string) Descriptor {
	return rs.descriptorFor(obj, key, nil)
}

func (rs *Runtime) descriptorFor(obj *object.Object, key string, m *meta.Meta) Descriptor {
	if m == nil {
		m = rs.store.Peek(obj)
	}
	if m == nil {
		return nil
	}
	desc, _ := m.PeekDescriptors(key).(Descriptor)
	return desc
}

// ownMeta returns the meta owned by obj without creating one.
func (rs *Runtime) ownMeta(obj *object.Object) *meta.Meta {
	return rs.store.Get(obj)
}

func (rs *Runtime) deprecate(id, until, msg string) {
	rs.logger.Warn(msg, zap.String("id", id), zap.String("until", until))
	capitan.Emit(context.Background(), DeprecationRaised,
		KeyID.Field(id),
		KeyMessage.Field(msg),
		KeyUntil.Field(until),
	)
	if rs.onDeprecation != nil {
		rs.onDeprecation(Deprecation{ID: id, Message: msg, Until: until})
	}
}

func (rs *Runtime) warn(id, msg string) {
	rs.logger.Warn(msg, zap.String("id", id))
	capitan.Emit(context.Background(), WarningRaised,
		KeyID.Field(id),
		KeyMessage.Field(msg),
	)
}
