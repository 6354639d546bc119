package gateway

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsCollector はGatewayのPrometheusメトリクス。
// アップストリーム呼び出しの観測（httpclient.Observer）と
// 依存サービスの状態記録（health.Recorder）を兼ねる。
type metricsCollector struct {
	registry                 *prometheus.Registry
	upstreamRequestsTotal    *prometheus.CounterVec
	upstreamRequestDuration  *prometheus.HistogramVec
	dependencyUp             *prometheus.GaugeVec
	rateLimitRejectionsTotal prometheus.Counter
}

// newMetricsCollector はメトリクスを生成し、サーバー専用のレジストリに登録する。
// サーバーを複数生成しても衝突しないよう、グローバルレジストリは使わない。
func newMetricsCollector() *metricsCollector {
	m := &metricsCollector{
		registry: prometheus.NewRegistry(),
		upstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cryptomarket_upstream_requests_total",
				Help: "Total number of upstream API requests by path and outcome.",
			},
			[]string{"path", "outcome"},
		),
		upstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cryptomarket_upstream_request_duration_seconds",
				Help:    "Duration of upstream API requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		dependencyUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cryptomarket_dependency_up",
				Help: "Whether the dependency passed its last health probe (1) or not (0).",
			},
			[]string{"service"},
		),
		rateLimitRejectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cryptomarket_ratelimit_rejections_total",
				Help: "Total number of requests rejected by rate limiting.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequestsTotal,
		m.upstreamRequestDuration,
		m.dependencyUp,
		m.rateLimitRejectionsTotal,
	)
	return m
}

// ObserveFetch はアップストリーム呼び出しの結果を記録する。
func (m *metricsCollector) ObserveFetch(path, outcome string, elapsed time.Duration) {
	m.upstreamRequestsTotal.WithLabelValues(path, outcome).Inc()
	m.upstreamRequestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

// RecordProbe は依存サービスの状態を記録する。
func (m *metricsCollector) RecordProbe(name string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	m.dependencyUp.WithLabelValues(name).Set(v)
}

// incRateLimitRejections はレート制限による拒否数を加算する。
func (m *metricsCollector) incRateLimitRejections() {
	m.rateLimitRejectionsTotal.Inc()
}

// handler はメトリクスを公開するHTTPハンドラを返す。
func (m *metricsCollector) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
