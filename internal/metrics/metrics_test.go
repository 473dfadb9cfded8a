package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// counterValue はレジストリから指定名・ラベルのカウンター値を取り出す。
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	for k, v := range labels {
		found := false
		for _, pair := range m.GetLabel() {
			if pair.GetName() == k && pair.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// TestRecordUserRegistered_IncrementsCounter は役割別の登録カウンタを検証する。
func TestRecordUserRegistered_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUserRegistered("influencer")
	c.RecordUserRegistered("influencer")
	c.RecordUserRegistered("brand")

	if got := counterValue(t, reg, "collabo_user_registered_total", map[string]string{"role": "influencer"}); got != 2 {
		t.Errorf("user_registered{role=influencer} = %v, want 2", got)
	}
	if got := counterValue(t, reg, "collabo_user_registered_total", map[string]string{"role": "brand"}); got != 1 {
		t.Errorf("user_registered{role=brand} = %v, want 1", got)
	}
}

// TestRecordMessageSent_IncrementsCounter はメッセージ送信カウンタを検証する。
func TestRecordMessageSent_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMessageSent()
	c.RecordMessageSent()

	if got := counterValue(t, reg, "collabo_message_sent_total", nil); got != 2 {
		t.Errorf("message_sent = %v, want 2", got)
	}
}

// TestRecordProfileCounters はプロフィール作成・検索カウンタを検証する。
func TestRecordProfileCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordProfileCreated("influencer")
	c.RecordProfileSearch("brand")
	c.RecordHTTPStatus(201)

	if got := counterValue(t, reg, "collabo_profile_created_total", map[string]string{"kind": "influencer"}); got != 1 {
		t.Errorf("profile_created{kind=influencer} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "collabo_profile_search_total", map[string]string{"kind": "brand"}); got != 1 {
		t.Errorf("profile_search{kind=brand} = %v, want 1", got)
	}
	if got := counterValue(t, reg, "collabo_http_status_total", map[string]string{"status_code": "201"}); got != 1 {
		t.Errorf("http_status{status_code=201} = %v, want 1", got)
	}
}

// TestRecordRequestLatency_ObservesHistogram はレイテンシヒストグラムを検証する。
func TestRecordRequestLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(50 * time.Millisecond)
	c.RecordRequestLatency(120 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "collabo_request_latency_seconds" {
			found = true
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
				t.Errorf("histogram sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("collabo_request_latency_seconds not found in registry")
	}
}

// TestHandler はPrometheusスクレイプエンドポイントの出力を検証する。
func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordMessageSent()

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "collabo_message_sent_total 1") {
		t.Errorf("metrics output should contain collabo_message_sent_total, got:\n%s", rec.Body.String())
	}
}

// TestCollectorInterface はインターフェース実装を確認する。
func TestCollectorInterface(t *testing.T) {
	var _ MetricsCollector = NewCollector(prometheus.NewRegistry())
}
