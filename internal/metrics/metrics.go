package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Scan cycle metrics
	// ============================================
	ScanCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_scan_cycles_total",
			Help: "Total number of scan cycles by outcome",
		},
		[]string{"outcome"},
	)

	ScanCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "monitor_scan_cycle_duration_seconds",
		Help:    "Scan cycle duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	PoliciesFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_policies_found",
		Help: "Active policies found in the last scan cycle",
	})

	PairsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_pairs_skipped_total",
			Help: "Total (token, chain) pairs skipped by reason",
		},
		[]string{"reason"},
	)

	// ============================================
	// Balance probe metrics
	// ============================================
	ProbeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_probe_failures_total",
			Help: "Total balance probes that exhausted their retry budget",
		},
		[]string{"chain"},
	)

	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_probe_duration_seconds",
			Help:    "Balance probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain"},
	)

	// ============================================
	// Refuel metrics
	// ============================================
	RefuelsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_refuels_triggered_total",
			Help: "Total refuel triggers by destination chain",
		},
		[]string{"chain"},
	)

	RefuelsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_refuels_failed_total",
			Help: "Total refuel dispatch failures by reason",
		},
		[]string{"chain", "reason"},
	)

	// ============================================
	// Relay metrics
	// ============================================
	RelaySubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_submissions_total",
			Help: "Total meta-transactions forwarded by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	RelayQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_queue_depth",
		Help: "Meta-transactions waiting in the forwarder queues",
	})

	RelayerBalance = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_relayer_balance_wei",
			Help: "Relayer address native balance per chain",
		},
		[]string{"chain", "address"},
	)
)
