// Package metrics 定義服務的 Prometheus 指標
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MatchRequestsTotal 比對請求數，outcome: ok | empty | empty_catalog | error
	MatchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_match_requests_total",
			Help: "Total number of match-and-rank requests by outcome",
		},
		[]string{"outcome"},
	)

	// MatchDuration 比對與排序耗時
	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_match_duration_seconds",
			Help:    "Duration of match-and-rank over the catalog",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// RankedResults 每次請求回傳的食譜數量
	RankedResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_ranked_results",
			Help:    "Number of recipes returned per ranking",
			Buckets: []float64{0, 1, 3, 5, 10, 20, 50},
		},
	)

	// FilteredRecipesTotal 被排除的食譜數，reason: blocked | excluded | unknown_recipe
	FilteredRecipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_filtered_total",
			Help: "Total number of recipes removed by hard filters",
		},
		[]string{"reason"},
	)

	// UnknownIngredientsTotal 無法辨識的食材輸入數
	UnknownIngredientsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingredient_unknown_total",
			Help: "Total number of ingredient terms that could not be normalized",
		},
	)

	// DetectionCallsTotal 食材辨識呼叫數，outcome: ok | empty | error | breaker_open | cached
	DetectionCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredient_detection_calls_total",
			Help: "Total number of ingredient detection calls by outcome",
		},
		[]string{"outcome"},
	)

	// DetectionDuration 辨識耗時
	DetectionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingredient_detection_duration_seconds",
			Help:    "Duration of upstream ingredient detection calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)

	// QueueDepth 辨識佇列中的工作數
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingredient_detection_queue_depth",
			Help: "Current number of detection jobs waiting in the queue",
		},
	)

	// CacheRequestsTotal 快取查詢數
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups by store and result",
		},
		[]string{"store", "result"},
	)

	// CatalogRecipes 目前目錄中的食譜數
	CatalogRecipes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_recipes",
			Help: "Number of recipes in the active catalog snapshot",
		},
	)

	// CatalogReloadsTotal 目錄重新載入次數
	CatalogReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Total number of catalog reloads by result",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal HTTP 請求數
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPRequestDuration HTTP 請求耗時
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// RecordMatch 記錄一次比對
func RecordMatch(outcome string, returned int, filtered map[string]int, duration time.Duration) {
	MatchRequestsTotal.WithLabelValues(outcome).Inc()
	MatchDuration.Observe(duration.Seconds())
	RankedResults.Observe(float64(returned))
	for reason, n := range filtered {
		FilteredRecipesTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordDetection 記錄一次辨識
func RecordDetection(outcome string, duration time.Duration) {
	DetectionCallsTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		DetectionDuration.Observe(duration.Seconds())
	}
}

// RecordCache 記錄快取查詢結果
func RecordCache(store string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequestsTotal.WithLabelValues(store, result).Inc()
}

// RecordHTTP 記錄 HTTP 請求
func RecordHTTP(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}
