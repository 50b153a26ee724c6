// Package metrics exposes Prometheus collectors for the HTTP service, the
// generation pipeline and the enrichment client.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VantageDataChat/LyricDeck"
	"github.com/VantageDataChat/LyricDeck/enrich"
)

const namespace = "lyricdeck"

// Metrics holds the collectors. A nil *Metrics discards observations.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	generations     *prometheus.CounterVec
	slidesGenerated prometheus.Counter
	enrichCalls     *prometheus.CounterVec
	enrichLatency   prometheus.Histogram
	enrichRetries   *prometheus.CounterVec
	enrichFallbacks prometheus.Counter
	enrichCacheHits prometheus.Counter
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNewMetrics creates the collectors and registers them with reg. Pass a
// fresh registry in tests; registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each deck generation stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage", "status"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "decks_total",
			Help:      "Generation runs by result (ok, validation, template, synthesis).",
		}, []string{"result"}),
		slidesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "slides_total",
			Help:      "Slides emitted by successful generation runs.",
		}),
		enrichCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "model_calls_total",
			Help:      "Language model calls by outcome.",
		}, []string{"outcome"}),
		enrichLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "model_call_duration_seconds",
			Help:      "Language model call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		enrichRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "retries_total",
			Help:      "Retried model calls by reason.",
		}, []string{"reason"}),
		enrichFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "fallback_lines_total",
			Help:      "Lines returned without pinyin.",
		}),
		enrichCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrich",
			Name:      "cache_hits_total",
			Help:      "Lines answered from the result cache.",
		}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.stageDuration, m.generations, m.slidesGenerated,
		m.enrichCalls, m.enrichLatency, m.enrichRetries, m.enrichFallbacks, m.enrichCacheHits,
	)
	return m
}

// ObserveHTTP records one finished request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStage has the signature of lyricdeck.StageObserver.
func (m *Metrics) ObserveStage(stage lyricdeck.Stage, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(string(stage), status).Observe(elapsed.Seconds())
}

// ObserveGeneration records the outcome of a whole generation run.
func (m *Metrics) ObserveGeneration(slides int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.generations.WithLabelValues(lyricdeck.KindOf(err).String()).Inc()
		return
	}
	m.generations.WithLabelValues("ok").Inc()
	m.slidesGenerated.Add(float64(slides))
}

// EnrichHooks returns hooks that feed the enrichment collectors.
func (m *Metrics) EnrichHooks() enrich.Hooks {
	if m == nil {
		return enrich.Hooks{}
	}
	return enrich.Hooks{
		OnCall: func(outcome string, elapsed time.Duration) {
			m.enrichCalls.WithLabelValues(outcome).Inc()
			if elapsed > 0 {
				m.enrichLatency.Observe(elapsed.Seconds())
			}
		},
		OnRetry: func(rateLimited bool) {
			reason := "transient"
			if rateLimited {
				reason = "rate_limited"
			}
			m.enrichRetries.WithLabelValues(reason).Inc()
		},
		OnFallback: func(lines int) { m.enrichFallbacks.Add(float64(lines)) },
		OnCacheHit: func(lines int) { m.enrichCacheHits.Add(float64(lines)) },
	}
}
