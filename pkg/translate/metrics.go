package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	engineGoogleLabel = "google"
	engineLibreLabel  = "libretranslate"

	statusSuccess = "success"
	statusError   = "error"
)

var (
	// Translation request metrics
	translationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agribot_translation_requests_total",
			Help: "Total number of translation requests",
		},
		[]string{"engine", "status"},
	)

	translationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agribot_translation_request_duration_seconds",
			Help:    "Duration of translation requests in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"engine", "status"},
	)

	translationRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agribot_translation_request_size_bytes",
			Help:    "Size of translation request text in bytes",
			Buckets: []float64{50, 100, 500, 1000, 2000, 5000},
		},
		[]string{"engine"},
	)

	translationResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agribot_translation_response_size_bytes",
			Help:    "Size of translation response text in bytes",
			Buckets: []float64{50, 100, 500, 1000, 2000, 5000},
		},
		[]string{"engine"},
	)

	// Cache metrics
	translationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agribot_translation_cache_hits_total",
			Help: "Total number of translation cache hits",
		},
	)

	translationCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agribot_translation_cache_misses_total",
			Help: "Total number of translation cache misses",
		},
	)

	translationCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agribot_translation_cache_entries",
			Help: "Current number of entries in the translation cache",
		},
	)
)

// recordTranslation records metrics for a single translation request.
func recordTranslation(engine, status string, duration time.Duration, requestSize, responseSize int) {
	translationRequestsTotal.WithLabelValues(engine, status).Inc()
	translationRequestDuration.WithLabelValues(engine, status).Observe(duration.Seconds())
	translationRequestSize.WithLabelValues(engine).Observe(float64(requestSize))
	if responseSize > 0 {
		translationResponseSize.WithLabelValues(engine).Observe(float64(responseSize))
	}
}

func recordCacheHit() {
	translationCacheHits.Inc()
}

func recordCacheMiss() {
	translationCacheMisses.Inc()
}

func recordCacheSize(entries int) {
	translationCacheEntries.Set(float64(entries))
}
