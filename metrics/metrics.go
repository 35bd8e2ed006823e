// Package metrics exposes intern store statistics to Prometheus.
//
//	store := atom.NewStore()
//	prometheus.MustRegister(metrics.NewCollector("myapp", store))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/robinvdvleuten/hstr/atom"
)

// StatsSource is anything that can report intern store statistics.
// *atom.Store implements it.
type StatsSource interface {
	Stats() atom.Stats
}

// Collector is a prometheus.Collector reading a StatsSource on every
// scrape. Counters mirror the store's monotonic counters; entries and bytes
// are gauges.
type Collector struct {
	source StatsSource

	shards        *prometheus.Desc
	entries       *prometheus.Desc
	bytes         *prometheus.Desc
	hits          *prometheus.Desc
	misses        *prometheus.Desc
	resurrections *prometheus.Desc
	removals      *prometheus.Desc
	abandoned     *prometheus.Desc
	merged        *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector whose metric names start with
// namespace_atom_.
func NewCollector(namespace string, source StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "atom", name), help, nil, nil)
	}
	return &Collector{
		source:        source,
		shards:        desc("shards", "Number of intern store shards."),
		entries:       desc("entries", "Live intern store entries."),
		bytes:         desc("bytes", "Content bytes held by live intern store entries."),
		hits:          desc("hits_total", "Interning calls that found an existing entry."),
		misses:        desc("misses_total", "Interning calls that created a new entry."),
		resurrections: desc("resurrections_total", "Entries revived while a release was removing them."),
		removals:      desc("removals_total", "Entries removed after their last release."),
		abandoned:     desc("abandoned_removals_total", "Removals given up because the entry was revived or already removed."),
		merged:        desc("merged_total", "Entries handed over to another store by a merge."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.shards
	ch <- c.entries
	ch <- c.bytes
	ch <- c.hits
	ch <- c.misses
	ch <- c.resurrections
	ch <- c.removals
	ch <- c.abandoned
	ch <- c.merged
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.source.Stats()

	ch <- prometheus.MustNewConstMetric(c.shards, prometheus.GaugeValue, float64(st.Shards))
	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(st.Entries))
	ch <- prometheus.MustNewConstMetric(c.bytes, prometheus.GaugeValue, float64(st.Bytes))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(st.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(st.Misses))
	ch <- prometheus.MustNewConstMetric(c.resurrections, prometheus.CounterValue, float64(st.Resurrections))
	ch <- prometheus.MustNewConstMetric(c.removals, prometheus.CounterValue, float64(st.Removals))
	ch <- prometheus.MustNewConstMetric(c.abandoned, prometheus.CounterValue, float64(st.Abandoned))
	ch <- prometheus.MustNewConstMetric(c.merged, prometheus.CounterValue, float64(st.Merged))
}
