package blockstore

import "github.com/prometheus/client_golang/prometheus"

// metrics holds a private prometheus registry per Blockstore, so that
// opening several stores in one process, as the test suite does, never
// collides on global registration.
type metrics struct {
	registry        *prometheus.Registry
	blocksWritten   prometheus.Counter
	rootsFinalized  prometheus.Counter
	treeCacheHits   prometheus.Counter
	treeCacheMisses prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		blocksWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_blockstore_blocks_written_total",
			Help: "Blocks written to durable storage when a root is first promoted.",
		}),
		rootsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_blockstore_roots_finalized_total",
			Help: "Distinct roots promoted to durable storage.",
		}),
		treeCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_blockstore_tree_cache_hits_total",
			Help: "GetTree calls served from the in-process tree cache.",
		}),
		treeCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_blockstore_tree_cache_misses_total",
			Help: "GetTree calls that read the leaf hash layer from the tree file.",
		}),
	}
	reg.MustRegister(m.blocksWritten, m.rootsFinalized, m.treeCacheHits, m.treeCacheMisses)
	return m
}

// Registry exposes the blockstore's prometheus registry for an external
// metrics collector to scrape.
func (bs *Blockstore) Registry() *prometheus.Registry { return bs.metrics.registry }
