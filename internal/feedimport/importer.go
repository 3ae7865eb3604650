// Package feedimport はRSS/Atomフィードからカルーセルコンテンツへの
// 取り込みを提供する。
// SSRF検証付きのHTTPフェッチ、gofeedによるパース、
// コンテンツアイテムドラフトへの変換を含む。
package feedimport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/BotleApps/StandBy-Screen/internal/model"
)

// URLGuard はフィードURLの検証と安全なHTTPクライアント生成のインターフェース。
type URLGuard interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration) *http.Client
}

// Importer はフィードのフェッチとコンテンツアイテムドラフトへの変換を行う。
type Importer struct {
	guard   URLGuard
	logger  *slog.Logger
	timeout time.Duration
}

// NewImporter はImporterの新しいインスタンスを生成する。
// timeoutが0以下の場合は10秒を使用する。
func NewImporter(guard URLGuard, logger *slog.Logger, timeout time.Duration) *Importer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Importer{
		guard:   guard,
		logger:  logger,
		timeout: timeout,
	}
}

// FetchItems はフィードをフェッチしてコンテンツアイテムドラフトに変換する。
// テキストコンテンツには記事の概要（なければ本文）を未サニタイズのまま
// 使用する。サニタイズは保存経路で一律に行われる（screen.Service）。
// limit件を超えるエントリは先頭から切り捨てる。
func (im *Importer) FetchItems(ctx context.Context, feedURL string, limit int) ([]model.ContentItemDraft, error) {
	if err := im.guard.ValidateURL(feedURL); err != nil {
		return nil, fmt.Errorf("フィードURLの検証に失敗: %w", err)
	}

	client := im.guard.NewSafeClient(im.timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", "standby-screen/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("フィードのフェッチに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("フィードのフェッチに失敗: HTTP %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("フィードのパースに失敗: %w", err)
	}

	drafts := convertEntries(parsed, limit)

	im.logger.Info("フィードを取り込みました",
		slog.String("feed_url", feedURL),
		slog.String("feed_title", parsed.Title),
		slog.Int("entry_count", len(parsed.Items)),
		slog.Int("imported_count", len(drafts)),
	)

	return drafts, nil
}

// convertEntries はパース済みフィードのエントリをドラフトへ変換する。
// タイトルまたは本文が空のエントリはスキップする。
func convertEntries(feed *gofeed.Feed, limit int) []model.ContentItemDraft {
	if limit <= 0 {
		limit = len(feed.Items)
	}

	drafts := make([]model.ContentItemDraft, 0, limit)
	for _, entry := range feed.Items {
		if len(drafts) >= limit {
			break
		}

		title := stripMarkup(entry.Title)
		body := entryBody(entry)
		if title == "" || body == "" {
			continue
		}

		drafts = append(drafts, model.ContentItemDraft{
			Title: title,
			Content: model.ContentValue{
				Kind:  model.ContentKindText,
				Value: body,
			},
			Tags: entryTags(feed, entry),
		})
	}
	return drafts
}

// stripMarkup はHTMLタグを除去し実体参照を解決したテキストを返す。
// フィードによってはタイトルにインラインマークアップや &amp; 等の
// 実体参照が混入するため、プレーンテキスト欄に入れる前に正規化する。
func stripMarkup(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	tok := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tok.Token().Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// entryBody は概要を優先し、なければ本文を返す。
func entryBody(entry *gofeed.Item) string {
	if s := strings.TrimSpace(entry.Description); s != "" {
		return s
	}
	return strings.TrimSpace(entry.Content)
}

// entryTags はエントリのカテゴリをタグとして返す。
// カテゴリがない場合はフィードタイトルを1つのタグとして使用する。
func entryTags(feed *gofeed.Feed, entry *gofeed.Item) []string {
	if len(entry.Categories) > 0 {
		tags := make([]string, 0, len(entry.Categories))
		for _, c := range entry.Categories {
			if c = strings.TrimSpace(c); c != "" {
				tags = append(tags, c)
			}
		}
		if len(tags) > 0 {
			return tags
		}
	}
	if t := strings.TrimSpace(feed.Title); t != "" {
		return []string{t}
	}
	return []string{}
}
