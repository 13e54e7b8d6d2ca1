package tag

// Tracker collects the tags read while it is the current tracking scope.
type Tracker struct {
	tags []Tag
	seen map[Tag]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{seen: map[Tag]struct{}{}}
}

func (t *Tracker) Add(tag Tag) {
	if tag == nil {
		return
	}
	if _, ok := t.seen[tag]; ok {
		return
	}
	t.seen[tag] = struct{}{}
	t.tags = append(t.tags, tag)
}

func (t *Tracker) Len() int { return len(t.tags) }

func (t *Tracker) Combine() Tag {
	return Combine(t.tags...)
}
