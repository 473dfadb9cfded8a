package showcase

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/collabo/internal/model"
)

// Item はコンテンツサンプルから取得した最新コンテンツ1件を表す。
type Item struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// ServiceConfig はショーケースサービスの設定。
type ServiceConfig struct {
	Timeout  time.Duration // フィード取得のタイムアウト
	MaxSize  int64         // レスポンスボディの最大サイズ（バイト）
	MaxItems int           // 返却するコンテンツの最大件数
}

// Service はプロフィールのコンテンツサンプルURLから
// 最新コンテンツ一覧を取得する機能を提供する。
type Service struct {
	detector  *FeedDetector
	ssrfGuard SSRFValidator
	config    ServiceConfig
}

// NewService はServiceを生成する。
func NewService(detector *FeedDetector, ssrfGuard SSRFValidator, config ServiceConfig) *Service {
	return &Service{
		detector:  detector,
		ssrfGuard: ssrfGuard,
		config:    config,
	}
}

// Fetch は指定されたコンテンツサンプルURLからフィードを検出し、
// 最新コンテンツをMaxItems件まで返す。
func (s *Service) Fetch(ctx context.Context, sampleURL string) ([]Item, error) {
	feedURL, err := s.detector.DetectFeedURL(ctx, sampleURL)
	if err != nil {
		return nil, err
	}

	client := s.ssrfGuard.NewSafeClient(s.config.Timeout, s.config.MaxSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "Collabo/1.0 Showcase Fetcher")

	resp, err := client.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, s.config.MaxSize))
	if err != nil {
		return nil, model.NewParseFailedError()
	}

	items := make([]Item, 0, s.config.MaxItems)
	for _, entry := range feed.Items {
		if len(items) >= s.config.MaxItems {
			break
		}
		items = append(items, Item{
			Title:       entry.Title,
			URL:         entry.Link,
			PublishedAt: entry.PublishedParsed,
		})
	}
	return items, nil
}

// FetchForProfile はプロフィールのコンテンツサンプルを先頭から順に試行し、
// 最初に取得できたコンテンツ一覧を返す。
// すべて失敗した場合は空の一覧を返し、プロフィール表示自体は妨げない。
func (s *Service) FetchForProfile(ctx context.Context, profile *model.Profile) []Item {
	for _, sample := range profile.ContentSamples {
		items, err := s.Fetch(ctx, sample)
		if err != nil {
			slog.Warn("showcase fetch failed",
				slog.Int64("profile_id", profile.ID),
				slog.String("url", sample),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(items) > 0 {
			return items
		}
	}
	return []Item{}
}
