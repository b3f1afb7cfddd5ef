package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineStats provides the metrics collector access to pipeline state.
type PipelineStats interface {
	InFlight() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pool  *pgxpool.Pool
	stats PipelineStats

	inFlight        *prometheus.Desc
	dbTotalConns    *prometheus.Desc
	dbAcquiredConns *prometheus.Desc
	dbIdleConns     *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// pool may be nil (sqlite store, metrics report 0). stats may be nil.
func NewCollector(pool *pgxpool.Pool, stats PipelineStats) *Collector {
	return &Collector{
		pool:  pool,
		stats: stats,
		inFlight: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "submissions_in_flight"),
			"Submissions currently being processed.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inFlight
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	inFlight := 0
	if c.stats != nil {
		inFlight = c.stats.InFlight()
	}
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(inFlight))

	if c.pool != nil {
		stat := c.pool.Stat()
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, 0)
	}
}
