package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_generator_ai_requests_total",
			Help: "Total number of requests to the AI API.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_generator_ai_request_duration_seconds",
			Help:    "Histogram of AI API request durations.",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_generator_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_generator_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(200, 200, 20),
		},
		[]string{"model"},
	)
	aiTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_generator_ai_total_tokens",
			Help:    "Histogram of total token counts (prompt + completion).",
			Buckets: prometheus.LinearBuckets(450, 450, 20),
		},
		[]string{"model"},
	)
	generationCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_generation_cache_total",
			Help: "Generation cache lookups by result.",
		},
		[]string{"result"}, // hit, miss, error
	)
	generationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deck_generation_attempts",
			Help:    "Number of AI attempts spent per generation.",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
)

// recordUsage обновляет метрики токенов, если модель их вернула.
func recordUsage(model string, u UsageInfo) {
	if u.TotalTokens <= 0 {
		return
	}
	aiPromptTokens.WithLabelValues(model).Observe(float64(u.PromptTokens))
	aiCompletionTokens.WithLabelValues(model).Observe(float64(u.CompletionTokens))
	aiTotalTokens.WithLabelValues(model).Observe(float64(u.TotalTokens))
}
