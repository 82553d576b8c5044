package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upvotes by outcome: "ok" or "duplicate".
	UpvotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_upvotes_total",
			Help: "Total number of upvote requests by outcome",
		},
		[]string{"status"},
	)

	// Ingested descriptor files by result: "inserted", "updated", "dry-run", "invalid".
	IngestFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_ingest_files_total",
			Help: "Total number of descriptor files processed by ingestion",
		},
		[]string{"result"},
	)

	ShowQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcb_show_query_duration_seconds",
			Help:    "Duration of show query engine operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	FacetCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_facet_cache_hits_total",
			Help: "Total number of facet lookups served from cache",
		},
		[]string{"facet"},
	)

	FacetCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_facet_cache_misses_total",
			Help: "Total number of facet lookups that went to the store",
		},
		[]string{"facet"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcb_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mcb_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func RecordUpvote(status string) {
	UpvotesTotal.WithLabelValues(status).Inc()
}

func RecordIngestFile(result string) {
	IngestFilesTotal.WithLabelValues(result).Inc()
}

// ObserveShowQuery is deferred at the top of an engine operation:
//
//	defer metrics.ObserveShowQuery("list", time.Now())
func ObserveShowQuery(operation string, start time.Time) {
	ShowQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func RecordFacetCache(facet string, hit bool) {
	if hit {
		FacetCacheHits.WithLabelValues(facet).Inc()
		return
	}
	FacetCacheMisses.WithLabelValues(facet).Inc()
}

func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
