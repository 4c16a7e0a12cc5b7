package querycache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts cache activity. Collectors are registered on the
// registerer passed to NewMetrics; a nil registerer leaves them unregistered.
type Metrics struct {
	Hits            prometheus.Counter
	Misses          prometheus.Counter
	HerdShared      prometheus.Counter
	Inserts         prometheus.Counter
	Evictions       prometheus.Counter
	RejectedInserts prometheus.Counter
	Blocks          prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Name: "blockql_query_cache_hits_total",
			Help: "Answers served from the block cache",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Name: "blockql_query_cache_misses_total",
			Help: "Block cache lookups that found no answer",
		}),
		HerdShared: f.NewCounter(prometheus.CounterOpts{
			Name: "blockql_query_herd_shared_total",
			Help: "Answers shared with a concurrent identical execution",
		}),
		Inserts: f.NewCounter(prometheus.CounterOpts{
			Name: "blockql_query_cache_inserts_total",
			Help: "Answers stored in the block cache",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Name: "blockql_query_cache_evictions_total",
			Help: "Blocks dropped from the block cache",
		}),
		RejectedInserts: f.NewCounter(prometheus.CounterOpts{
			Name: "blockql_query_cache_rejected_inserts_total",
			Help: "Answers not stored because their block is older than the newest cached block",
		}),
		Blocks: f.NewGauge(prometheus.GaugeOpts{
			Name: "blockql_query_cache_blocks",
			Help: "Number of blocks currently held by the block cache",
		}),
	}
}
