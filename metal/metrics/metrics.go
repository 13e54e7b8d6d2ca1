// Package metrics exposes meta store counters to Prometheus.
package metrics

import (
	"strings"
	"unicode"

	"github.com/delaneyj/metal/meta"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the counters collector.
type Config struct {
	// Namespace is the metrics namespace (default: "metal").
	Namespace string

	// Subsystem is the metrics subsystem (default: "meta").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// Collector reports a snapshot of meta.Counters on every scrape.
//
// Stores are not safe for concurrent use, so the snapshot function is
// responsible for reading the counters from the goroutine that owns the
// store, or for holding whatever lock guards it.
type Collector struct {
	snapshot func() meta.Counters
	descs    map[string]*prometheus.Desc
	order    []string
}

func NewCollector(snapshot func() meta.Counters, opts ...Option) *Collector {
	cfg := Config{Namespace: "metal", Subsystem: "meta"}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Collector{
		snapshot: snapshot,
		descs:    map[string]*prometheus.Desc{},
	}
	for _, nc := range (meta.Counters{}).Named() {
		c.order = append(c.order, nc.Name)
		c.descs[nc.Name] = prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, snakeCase(nc.Name)+"_total"),
			"Number of "+strings.ToLower(spaced(nc.Name))+".",
			nil,
			cfg.ConstLabels,
		)
	}
	return c
}

// ForStore collects the counters of store, read on the scraping goroutine.
func ForStore(store *meta.Store, opts ...Option) *Collector {
	return NewCollector(store.Counters, opts...)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range c.order {
		ch <- c.descs[name]
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, nc := range c.snapshot().Named() {
		desc, ok := c.descs[nc.Name]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(nc.Value))
	}
}

// snakeCase turns peekPrototypeWalks into peek_prototype_walks.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func spaced(name string) string {
	return strings.ReplaceAll(snakeCase(name), "_", " ")
}
