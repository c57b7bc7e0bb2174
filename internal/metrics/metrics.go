// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordRegistration(role string)
	RecordLogin(method string, outcome string)
	RecordTokenVerifyFailure(reason string)
	RecordDanglingReference()
	RecordDanglingCleaned(count int)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	registrations     *prometheus.CounterVec
	logins            *prometheus.CounterVec
	tokenVerifyFail   *prometheus.CounterVec
	danglingReference prometheus.Counter
	danglingCleaned   prometheus.Counter
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_registrations_total",
			Help: "アカウント登録の合計数（種別別）",
		}, []string{"role"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_logins_total",
			Help: "ログイン試行の合計数（方式・結果別）",
		}, []string{"method", "outcome"}),
		tokenVerifyFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_token_verify_fail_total",
			Help: "トークン検証失敗の合計数（理由別）",
		}, []string{"reason"}),
		danglingReference: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rideshare_dangling_reference_total",
			Help: "参照先投稿が解決できなかった参加リクエストの検出数",
		}),
		danglingCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rideshare_dangling_cleaned_total",
			Help: "クリーンアップで削除された孤立参加リクエストの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rideshare_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rideshare_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.registrations,
		c.logins,
		c.tokenVerifyFail,
		c.danglingReference,
		c.danglingCleaned,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordRegistration はアカウント登録を種別付きで記録する。
func (c *Collector) RecordRegistration(role string) {
	c.registrations.WithLabelValues(role).Inc()
}

// RecordLogin はログイン試行を方式（password/google）と結果付きで記録する。
func (c *Collector) RecordLogin(method string, outcome string) {
	c.logins.WithLabelValues(method, outcome).Inc()
}

// RecordTokenVerifyFailure はトークン検証失敗を理由付きで記録する。
func (c *Collector) RecordTokenVerifyFailure(reason string) {
	c.tokenVerifyFail.WithLabelValues(reason).Inc()
}

// RecordDanglingReference は参照先が解決できない参加リクエストの検出を記録する。
func (c *Collector) RecordDanglingReference() {
	c.danglingReference.Inc()
}

// RecordDanglingCleaned はクリーンアップで削除された孤立リクエスト数を記録する。
func (c *Collector) RecordDanglingCleaned(count int) {
	c.danglingCleaned.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はHTTPリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
