package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktr_ledger_calls_total",
		Help: "Total number of ledger contract calls, labelled by method and status.",
	}, []string{"method", "status"})

	LedgerCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tiktr_ledger_call_duration_ms",
		Help:    "Ledger contract call latency in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method"})

	CatalogLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktr_catalog_loads_total",
		Help: "Total number of catalog aggregation passes, labelled by status.",
	}, []string{"status"})

	CatalogEventsExcluded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiktr_catalog_events_excluded_total",
		Help: "Events dropped from a catalog pass because their fetch failed.",
	})

	CatalogSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tiktr_catalog_size",
		Help: "Number of events in the most recent catalog pass.",
	})

	TicketsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktr_tickets_scanned_total",
		Help: "Token ids visited by the ownership scan, labelled by outcome.",
	}, []string{"outcome"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiktr_ownership_scan_duration_ms",
		Help:    "Wall time of one ownership scan in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	})

	EventsListed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktr_events_listed_total",
		Help: "Event listing submissions, labelled by status.",
	}, []string{"status"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiktr_http_requests_total",
		Help: "HTTP requests served, labelled by route and status code.",
	}, []string{"route", "code"})
)
