package showcase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Creator Blog</title>
<link>https://blog.example.com</link>
<item><title>投稿1</title><link>https://blog.example.com/1</link><pubDate>Mon, 02 Jun 2025 10:00:00 +0000</pubDate></item>
<item><title>投稿2</title><link>https://blog.example.com/2</link></item>
<item><title>投稿3</title><link>https://blog.example.com/3</link></item>
</channel>
</rss>`

func newTestShowcaseService(maxItems int) *Service {
	validator := &allowAllValidator{}
	detector := NewFeedDetector(validator, 5*time.Second, 1024*1024)
	return NewService(detector, validator, ServiceConfig{
		Timeout:  5 * time.Second,
		MaxSize:  1024 * 1024,
		MaxItems: maxItems,
	})
}

// TestService_Fetch はフィードからの最新コンテンツ取得を検証する。
func TestService_Fetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSSFeed)
	}))
	defer ts.Close()

	svc := newTestShowcaseService(5)
	items, err := svc.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "投稿1" {
		t.Errorf("items[0].Title = %q, want %q", items[0].Title, "投稿1")
	}
	if items[0].URL != "https://blog.example.com/1" {
		t.Errorf("items[0].URL = %q", items[0].URL)
	}
	if items[0].PublishedAt == nil {
		t.Error("items[0].PublishedAt should be parsed")
	}
	if items[1].PublishedAt != nil {
		t.Error("items[1].PublishedAt should be nil when pubDate is absent")
	}
}

// TestService_Fetch_MaxItems は返却件数の上限を検証する。
func TestService_Fetch_MaxItems(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSSFeed)
	}))
	defer ts.Close()

	svc := newTestShowcaseService(2)
	items, err := svc.Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items (MaxItems), got %d", len(items))
	}
}

// TestService_Fetch_ParseFailure は壊れたフィードのPARSE_FAILEDエラーを検証する。
func TestService_Fetch_ParseFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, "this is not xml at all")
	}))
	defer ts.Close()

	svc := newTestShowcaseService(5)
	_, err := svc.Fetch(context.Background(), ts.URL)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeParseFailed {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeParseFailed)
	}
}

// TestService_FetchForProfile_Fallback は先頭サンプルの失敗時に
// 次のサンプルへフォールバックすることを検証する。
func TestService_FetchForProfile_Fallback(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head></head></html>`)
	}))
	defer broken.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSSFeed)
	}))
	defer working.Close()

	svc := newTestShowcaseService(5)
	items := svc.FetchForProfile(context.Background(), &model.Profile{
		ID:             1,
		ContentSamples: []string{broken.URL, working.URL},
	})
	if len(items) != 3 {
		t.Errorf("expected 3 items from fallback URL, got %d", len(items))
	}
}

// TestService_FetchForProfile_AllFail は全サンプル失敗時に
// 空の一覧を返し、エラーにしないことを検証する。
func TestService_FetchForProfile_AllFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head></head></html>`)
	}))
	defer broken.Close()

	svc := newTestShowcaseService(5)
	items := svc.FetchForProfile(context.Background(), &model.Profile{
		ID:             1,
		ContentSamples: []string{broken.URL},
	})
	if items == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Errorf("expected 0 items, got %d", len(items))
	}
}

// TestService_FetchForProfile_NoSamples はサンプル未登録プロフィールを検証する。
func TestService_FetchForProfile_NoSamples(t *testing.T) {
	svc := newTestShowcaseService(5)
	items := svc.FetchForProfile(context.Background(), &model.Profile{ID: 1})
	if len(items) != 0 {
		t.Errorf("expected 0 items, got %d", len(items))
	}
}
