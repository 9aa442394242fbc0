package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// Pipeline Metrics
var (
	EstimationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEstimationsTotal,
			Help: HelpTextEstimationsTotal,
		},
		[]string{LabelOutcome},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameStageDuration,
			Help:    HelpTextStageDuration,
			Buckets: StageLatencyBuckets,
		},
		[]string{LabelStage},
	)

	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLLMCallsTotal,
			Help: HelpTextLLMCallsTotal,
		},
		[]string{LabelStage, LabelStatus},
	)

	LLMCacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLLMCacheHitsTotal,
			Help: HelpTextLLMCacheHitsTotal,
		},
		[]string{LabelBackend},
	)

	TranslationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTranslationAttempts,
			Help: HelpTextTranslationAttempts,
		},
		[]string{LabelProvider, LabelStatus},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSearchRequestsTotal,
			Help: HelpTextSearchRequestsTotal,
		},
		[]string{LabelStatus},
	)
)

// ObserveStage 記錄階段耗時
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// StatusLabel 依錯誤回傳 ok / error
func StatusLabel(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
