// Package tag implements revision tags: cheap validators that let a cached
// value check whether anything it was computed from has changed since.
package tag

type Revision uint64

const (
	Constant Revision = 0
	Initial  Revision = 1
)

// Clock hands out monotonically increasing revisions. Every dirtied tag
// advances the clock it was created from.
type Clock struct {
	revision Revision
}

func NewClock() *Clock {
	return &Clock{revision: Initial}
}

func (c *Clock) Current() Revision { return c.revision }

func (c *Clock) bump() Revision {
	c.revision++
	return c.revision
}

type Tag interface {
	Value() Revision
	// Validate reports whether nothing changed since snapshot was taken.
	Validate(snapshot Revision) bool
}

type constantTag struct{}

func (constantTag) Value() Revision          { return Constant }
func (constantTag) Validate(_ Revision) bool { return true }

// ConstantTag never invalidates.
var ConstantTag Tag = constantTag{}

type DirtyableTag struct {
	clock    *Clock
	revision Revision
}

func (c *Clock) NewDirtyable() *DirtyableTag {
	return &DirtyableTag{clock: c, revision: c.revision}
}

func (t *DirtyableTag) Value() Revision { return t.revision }

func (t *DirtyableTag) Validate(snapshot Revision) bool { return t.revision <= snapshot }

func (t *DirtyableTag) Dirty() { t.revision = t.clock.bump() }

// UpdatableTag forwards to an inner tag that may be swapped out later.
type UpdatableTag struct {
	clock       *Clock
	inner       Tag
	lastUpdated Revision
}

func (c *Clock) NewUpdatable(inner Tag) *UpdatableTag {
	return &UpdatableTag{clock: c, inner: inner, lastUpdated: Initial}
}

func (t *UpdatableTag) Value() Revision {
	return max(t.inner.Value(), t.lastUpdated)
}

func (t *UpdatableTag) Validate(snapshot Revision) bool { return t.Value() <= snapshot }

func (t *UpdatableTag) Update(inner Tag) {
	if inner == t.inner {
		return
	}
	t.inner = inner
	t.lastUpdated = t.clock.Current()
}

type combinedTag struct {
	tags []Tag
}

func (c *combinedTag) Value() Revision {
	var rev Revision
	for _, t := range c.tags {
		rev = max(rev, t.Value())
	}
	return rev
}

func (c *combinedTag) Validate(snapshot Revision) bool { return c.Value() <= snapshot }

// Combine returns a tag whose value is the newest of tags.
func Combine(tags ...Tag) Tag {
	switch len(tags) {
	case 0:
		return ConstantTag
	case 1:
		return tags[0]
	default:
		return &combinedTag{tags: append([]Tag(nil), tags...)}
	}
}

// PropertyTag is the tag kept per observed property: it can be dirtied by
// writes and re-pointed at the tags a computed value was derived from.
type PropertyTag struct {
	dirty     *DirtyableTag
	updatable *UpdatableTag
}

func (c *Clock) NewPropertyTag() *PropertyTag {
	return &PropertyTag{
		dirty:     c.NewDirtyable(),
		updatable: c.NewUpdatable(ConstantTag),
	}
}

func (t *PropertyTag) Value() Revision {
	return max(t.dirty.Value(), t.updatable.Value())
}

func (t *PropertyTag) Validate(snapshot Revision) bool { return t.Value() <= snapshot }

func (t *PropertyTag) Dirty() { t.dirty.Dirty() }

func (t *PropertyTag) Update(inner Tag) { t.updatable.Update(inner) }
