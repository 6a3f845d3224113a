package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// RedisCommandLatency records Redis round trips by command.
	RedisCommandLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_redis_command_latency_seconds",
		Help:    "Redis command latency in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by statement kind.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// PostsWritten counts post creations and edits.
	PostsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_posts_written_total",
		Help: "Total number of posts created or edited",
	}, []string{"action"})

	// CommentsCreated counts accepted comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_comments_created_total",
		Help: "Total number of comments created",
	})

	// FollowEvents counts follow graph changes by action and outcome.
	FollowEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_follow_events_total",
		Help: "Follow and unfollow requests by outcome",
	}, []string{"action", "outcome"})

	// PageCacheResults counts page cache lookups by result (hit, miss, unreachable).
	PageCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_page_cache_results_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// MediaStored counts stored uploads by detected format.
	MediaStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_media_stored_total",
		Help: "Uploaded images stored by format",
	}, []string{"format"})
)

// ObserveQuery records the latency of a SQL statement, labelled by its leading keyword.
func ObserveQuery(sql string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(statementKind(sql)).Observe(time.Since(start).Seconds())
}

func statementKind(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	switch kind := strings.ToLower(fields[0]); kind {
	case "select", "insert", "update", "delete":
		return kind
	default:
		return "other"
	}
}
