package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics of the sync engine
type Collector struct {
	registry *prometheus.Registry

	// Save pipeline metrics
	Saves       *prometheus.CounterVec
	SaveRetries prometheus.Counter

	// Poll loop metrics
	PollTicks *prometheus.CounterVec

	// Local cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// NewCollector creates a metrics collector on its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	saves := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Total number of executed graph saves",
		},
		[]string{"result"},
	)

	saveRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_retries_total",
			Help:      "Total number of retried immediate saves",
		},
	)

	pollTicks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Total number of poll ticks by outcome",
		},
		[]string{"result"},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of local cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of local cache misses",
		},
	)

	registry.MustRegister(saves, saveRetries, pollTicks, cacheHits, cacheMisses)

	return &Collector{
		registry:    registry,
		Saves:       saves,
		SaveRetries: saveRetries,
		PollTicks:   pollTicks,
		CacheHits:   cacheHits,
		CacheMisses: cacheMisses,
	}
}

// Registry exposes the collector's registry for the /metrics handler
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveSave records one executed save
func (c *Collector) ObserveSave(success bool) {
	if c == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	c.Saves.WithLabelValues(result).Inc()
}

// ObserveSaveRetry records one retried immediate save
func (c *Collector) ObserveSaveRetry() {
	if c == nil {
		return
	}
	c.SaveRetries.Inc()
}

// ObservePollTick records one poll tick; result is "ok", "skipped" or "error"
func (c *Collector) ObservePollTick(result string) {
	if c == nil {
		return
	}
	c.PollTicks.WithLabelValues(result).Inc()
}

// ObserveCacheRead records one local cache read
func (c *Collector) ObserveCacheRead(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.CacheHits.Inc()
	} else {
		c.CacheMisses.Inc()
	}
}
