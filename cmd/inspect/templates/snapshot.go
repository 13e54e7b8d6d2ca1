package templates

// Snapshot is everything the inspect command reports about one run.
type Snapshot struct {
	Title        string        `yaml:"title"`
	Tracked      bool          `yaml:"tracked"`
	Objects      []ObjectView  `yaml:"objects"`
	Events       []string      `yaml:"events"`
	Deprecations []string      `yaml:"deprecations,omitempty"`
	Counters     []CounterView `yaml:"counters"`
}

type ObjectView struct {
	Name       string         `yaml:"name"`
	Destroyed  bool           `yaml:"destroyed,omitempty"`
	Properties []PropertyView `yaml:"properties"`
}

type PropertyView struct {
	Key   string `yaml:"key"`
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

type CounterView struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}
