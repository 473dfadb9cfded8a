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
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordUserRegistered(role string)
	RecordMessageSent()
	RecordProfileCreated(kind string)
	RecordProfileSearch(kind string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	userRegistered *prometheus.CounterVec
	messageSent    prometheus.Counter
	profileCreated *prometheus.CounterVec
	profileSearch  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		userRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabo_user_registered_total",
			Help: "役割別のユーザー登録数",
		}, []string{"role"}),
		messageSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "collabo_message_sent_total",
			Help: "送信されたメッセージの合計数",
		}),
		profileCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabo_profile_created_total",
			Help: "種別ごとのプロフィール作成数",
		}, []string{"kind"}),
		profileSearch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabo_profile_search_total",
			Help: "種別ごとのプロフィール検索実行数",
		}, []string{"kind"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "collabo_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "collabo_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.userRegistered,
		c.messageSent,
		c.profileCreated,
		c.profileSearch,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordUserRegistered はユーザー登録を記録する。
func (c *Collector) RecordUserRegistered(role string) {
	c.userRegistered.WithLabelValues(role).Inc()
}

// RecordMessageSent はメッセージ送信を記録する。
func (c *Collector) RecordMessageSent() {
	c.messageSent.Inc()
}

// RecordProfileCreated はプロフィール作成を記録する。
func (c *Collector) RecordProfileCreated(kind string) {
	c.profileCreated.WithLabelValues(kind).Inc()
}

// RecordProfileSearch はプロフィール検索を記録する。
func (c *Collector) RecordProfileSearch(kind string) {
	c.profileSearch.WithLabelValues(kind).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
