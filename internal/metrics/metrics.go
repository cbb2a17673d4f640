// Package metrics 汇总摘要流水线的 Prometheus 指标，所有方法对 nil 接收者安全。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "text_digest"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	chunkCallsTotal *prometheus.CounterVec
	fallbacksTotal  *prometheus.CounterVec
	lowCoverage     prometheus.Counter
	coverage        prometheus.Histogram
	depth           prometheus.Histogram
	strategy        *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Summarization requests by channel, style and outcome.",
		}, []string{"channel", "style", "outcome"}),
		chunkCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_calls_total",
			Help:      "Per-chunk summarization calls by outcome.",
		}, []string{"outcome"}),
		fallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "format_fallbacks_total",
			Help:      "Style formatting that fell back to local formatting.",
		}, []string{"style"}),
		lowCoverage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "low_coverage_total",
			Help:      "Summaries whose keyword coverage fell below the threshold.",
		}),
		coverage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "keyword_coverage",
			Help:      "Keyword coverage of base summaries.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recursion_depth",
			Help:      "Merge-and-resummarize depth reached per request.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		}),
		strategy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "strategy_info",
			Help:      "Active tokenizer and segmenter strategies.",
		}, []string{"component", "strategy"}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.chunkCallsTotal,
		m.fallbacksTotal,
		m.lowCoverage,
		m.coverage,
		m.depth,
		m.strategy,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveRequest(channel, style, outcome string) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(channel, style, outcome).Inc()
}

func (m *Metrics) ObserveChunkCall(outcome string) {
	if m == nil {
		return
	}
	m.chunkCallsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveFallback(style string) {
	if m == nil {
		return
	}
	m.fallbacksTotal.WithLabelValues(style).Inc()
}

func (m *Metrics) ObserveCoverage(coverage float64, low bool) {
	if m == nil {
		return
	}
	m.coverage.Observe(coverage)
	if low {
		m.lowCoverage.Inc()
	}
}

func (m *Metrics) ObserveDepth(depth int) {
	if m == nil {
		return
	}
	m.depth.Observe(float64(depth))
}

// SetStrategy 记录当前生效的分词/分句策略
func (m *Metrics) SetStrategy(component, strategy string) {
	if m == nil {
		return
	}
	m.strategy.WithLabelValues(component, strategy).Set(1)
}
