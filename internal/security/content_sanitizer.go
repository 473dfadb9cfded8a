package security

import (
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー入力コンテンツのサニタイズ機能の
// インターフェースを定義する。プロフィールの自己紹介・マーケティング目標の
// 保存前、およびメッセージ本文の保存前に使用される。
type ContentSanitizerService interface {
	// SanitizeRichText はプロフィールの紹介文など限定的なHTMLを許可する
	// フィールドをサニタイズする。許可タグ（p, br, a, ul, ol, li,
	// blockquote, strong, em）のみを通過させ、script, iframe, style
	// タグおよびon*イベント属性を除去する。
	// aタグにはtarget="_blank"とrel="noopener noreferrer"が自動付与される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeRichText(rawHTML string) string

	// StripTags はメッセージ本文などプレーンテキスト前提のフィールドから
	// すべてのHTMLタグを除去する。
	StripTags(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	richText *bluemonday.Policy
	strict   *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// リッチテキストポリシーの内容:
//   - 許可タグ: p, br, a, ul, ol, li, blockquote, strong, em
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - aタグ: target="_blank" と rel="noopener noreferrer" を自動付与、
//     hrefはhttpsスキームのみ許可
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// script, iframe, style等は許可リストに含めないことで自動的に除去される
	// on*イベント属性はbluemondayのデフォルトで許可されない
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote",
		"strong", "em",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	p.AllowURLSchemeWithCustomPolicy("https", func(u *url.URL) bool {
		return true
	})

	return &contentSanitizer{
		richText: p,
		strict:   bluemonday.StrictPolicy(),
	}
}

// SanitizeRichText はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) SanitizeRichText(rawHTML string) string {
	return s.richText.Sanitize(rawHTML)
}

// StripTags はすべてのHTMLタグを除去したテキストを返す。
func (s *contentSanitizer) StripTags(raw string) string {
	return s.strict.Sanitize(raw)
}
