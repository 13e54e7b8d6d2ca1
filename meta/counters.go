package meta

// Counters records how often the store and its metas were exercised. The
// numbers are diagnostics only; nothing reads them to make decisions.
type Counters struct {
	PeekCalls                int64 `yaml:"peek_calls"`
	PeekPrototypeWalks       int64 `yaml:"peek_prototype_walks"`
	SetCalls                 int64 `yaml:"set_calls"`
	DeleteCalls              int64 `yaml:"delete_calls"`
	MetaCalls                int64 `yaml:"meta_calls"`
	MetaInstantiated         int64 `yaml:"meta_instantiated"`
	AddToListenersCalls      int64 `yaml:"add_to_listeners_calls"`
	RemoveFromListenersCalls int64 `yaml:"remove_from_listeners_calls"`
	RemoveAllListenersCalls  int64 `yaml:"remove_all_listeners_calls"`
	ListenersInherited       int64 `yaml:"listeners_inherited"`
	ListenersFlattened       int64 `yaml:"listeners_flattened"`
	ReopensAfterFlatten      int64 `yaml:"reopens_after_flatten"`
}

// Named returns the counters in a stable order, for reporting.
func (c Counters) Named() []NamedCounter {
	return []NamedCounter{
		{"peekCalls", c.PeekCalls},
		{"peekPrototypeWalks", c.PeekPrototypeWalks},
		{"setCalls", c.SetCalls},
		{"deleteCalls", c.DeleteCalls},
		{"metaCalls", c.MetaCalls},
		{"metaInstantiated", c.MetaInstantiated},
		{"addToListenersCalls", c.AddToListenersCalls},
		{"removeFromListenersCalls", c.RemoveFromListenersCalls},
		{"removeAllListenersCalls", c.RemoveAllListenersCalls},
		{"listenersInherited", c.ListenersInherited},
		{"listenersFlattened", c.ListenersFlattened},
		{"reopensAfterFlatten", c.ReopensAfterFlatten},
	}
}

type NamedCounter struct {
	Name  string
	Value int64
}
