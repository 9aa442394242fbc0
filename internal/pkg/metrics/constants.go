package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal   = "http_requests_total"
	MetricNameHTTPRequestDuration = "http_request_duration_seconds"
)

// Pipeline metric names
const (
	MetricNameEstimationsTotal    = "estimations_total"
	MetricNameStageDuration       = "stage_duration_seconds"
	MetricNameLLMCallsTotal       = "llm_calls_total"
	MetricNameLLMCacheHitsTotal   = "llm_cache_hits_total"
	MetricNameTranslationAttempts = "translation_attempts_total"
	MetricNameSearchRequestsTotal = "search_requests_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

const (
	HelpTextHTTPRequestsTotal   = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration = "HTTP request latency in seconds"
	HelpTextEstimationsTotal    = "Total number of estimations by final outcome"
	HelpTextStageDuration       = "Pipeline stage latency in seconds"
	HelpTextLLMCallsTotal       = "Total number of language model calls"
	HelpTextLLMCacheHitsTotal   = "Total number of language model responses served from cache"
	HelpTextTranslationAttempts = "Total number of translation attempts per provider"
	HelpTextSearchRequestsTotal = "Total number of emission web searches"
)

// ============================================================================
// Metric Label Names
// ============================================================================

const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelStage    = "stage"
	LabelOutcome  = "outcome"
	LabelBackend  = "backend"
	LabelProvider = "provider"
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Buckets
var (
	HTTPLatencyBuckets  = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	StageLatencyBuckets = []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 20, 40, 90}
)
