// Package timing records pipeline durations and counts as Prometheus metrics.
package timing

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papertext"

var (
	registry = prometheus.NewRegistry()

	documentsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents run through the ingestion pipeline by outcome.",
		},
		[]string{"outcome"},
	)
	ingestionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingestion_duration_seconds",
			Help:      "Duration of createDocument from sync to commit.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
	graphNodesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_nodes_created_total",
			Help:      "Annotation nodes committed to the graph.",
		},
	)
	annotationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotation_request_duration_seconds",
			Help:      "Round trip to the annotation service.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"outcome"},
	)
	corporaCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corpora_created_total",
			Help:      "Corpora created.",
		},
	)
	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_sync_runs_total",
			Help:      "Directory synchronizations by outcome.",
		},
		[]string{"outcome"},
	)
	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "directory_sync_duration_seconds",
			Help:      "Duration of one directory synchronization.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func init() {
	registry.MustRegister(
		documentsIngested,
		ingestionDuration,
		graphNodesCreated,
		annotationDuration,
		corporaCreated,
		syncRuns,
		syncDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// Registry exposes the underlying registry for tests and additional collectors.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveIngestion records one createDocument run. nodes is only counted on
// success.
func ObserveIngestion(ok bool, d time.Duration, nodes int) {
	documentsIngested.WithLabelValues(outcome(ok)).Inc()
	ingestionDuration.Observe(d.Seconds())
	if ok {
		graphNodesCreated.Add(float64(nodes))
	}
}

func ObserveAnnotation(ok bool, d time.Duration) {
	annotationDuration.WithLabelValues(outcome(ok)).Observe(d.Seconds())
}

func ObserveSync(ok bool, d time.Duration) {
	syncRuns.WithLabelValues(outcome(ok)).Inc()
	syncDuration.Observe(d.Seconds())
}

func IncCorporaCreated() {
	corporaCreated.Inc()
}
