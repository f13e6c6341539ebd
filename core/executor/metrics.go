package executor

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the executor's own prometheus registry: a private
// *prometheus.Registry per instance rather than the global default
// registry, so that multiple Executors (one per test, one per node) never
// collide on metric registration. An external metrics collector is expected
// to scrape Registry() rather than promhttp's default handler.
type metrics struct {
	registry           *prometheus.Registry
	txTotal            *prometheus.CounterVec
	epochChanges       prometheus.Counter
	commitFailures     prometheus.Counter
	accountCacheHits   prometheus.Counter
	accountCacheMisses prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	m := &metrics{
		registry: reg,
		txTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lumen_executor_transactions_total",
			Help: "Transactions executed, partitioned by outcome (success or a revert kind).",
		}, []string{"outcome"}),
		epochChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_executor_epoch_changes_total",
			Help: "Epoch transitions triggered by ChangeEpoch reaching quorum.",
		}),
		commitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_executor_block_commit_failures_total",
			Help: "Block commits that failed and aborted the whole block.",
		}),
		accountCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_executor_account_cache_hits_total",
			Help: "Account lookups served from the in-process hot-account cache.",
		}),
		accountCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lumen_executor_account_cache_misses_total",
			Help: "Account lookups that missed the hot-account cache and read through the table.",
		}),
	}
	reg.MustRegister(m.txTotal, m.epochChanges, m.commitFailures, m.accountCacheHits, m.accountCacheMisses)
	return m
}

func (m *metrics) observe(resp TransactionResponse) {
	if resp.Success != nil {
		m.txTotal.WithLabelValues("success").Inc()
		if resp.Success.ChangeEpoch {
			m.epochChanges.Inc()
		}
		return
	}
	m.txTotal.WithLabelValues(resp.Revert.String()).Inc()
}

// Registry exposes the executor's prometheus registry for an external
// metrics collector to scrape.
func (e *Executor) Registry() *prometheus.Registry { return e.metrics.registry }
