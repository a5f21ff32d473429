package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderpulse_orders_ingested_total",
		Help: "Total number of raw orders accepted into the store, labelled by source.",
	}, []string{"source"})

	IngestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderpulse_ingest_errors_total",
		Help: "Total number of raw payloads rejected before reaching the store.",
	}, []string{"source"})

	Passes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderpulse_passes_total",
		Help: "Total number of completed derivation passes.",
	})

	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderpulse_pass_duration_seconds",
		Help:    "Wall-clock duration of a full derivation pass.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	RecordsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderpulse_records_evaluated_total",
		Help: "Total number of order records run through the derivation rules.",
	})

	StoreRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderpulse_store_records",
		Help: "Number of order records currently held in the store.",
	})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderpulse_ws_clients",
		Help: "Number of connected dashboard feed clients.",
	})

	ExportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderpulse_export_errors_total",
		Help: "Total number of failed result exports, labelled by sink.",
	}, []string{"sink"})

	BreachInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderpulse_breach_inflight",
		Help: "In Process orders past their promised time as of the latest pass.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderpulse_queue_utilization_ratio",
		Help: "Current pass queue utilization (0–1).",
	})
)
