package model

import "time"

// ProfileKind はプロフィールの種別（インフルエンサー/ブランド）を表す。
type ProfileKind string

const (
	// KindInfluencer はインフルエンサープロフィール。
	KindInfluencer ProfileKind = "influencer"
	// KindBrand はブランドプロフィール。
	KindBrand ProfileKind = "brand"
)

// Valid はProfileKindが定義済みの値かを判定する。
func (k ProfileKind) Valid() bool {
	return k == KindInfluencer || k == KindBrand
}

// Profile はユーザーに紐づく役割別プロフィールを表す。
// Kindで種別を判別する単一の型とし、ディレクトリのロジックを
// 種別ごとに二重実装しないようにする。
// 1ユーザーにつき種別ごとに最大1件（リポジトリ層で強制される）。
type Profile struct {
	ID     int64
	UserID int64
	Kind   ProfileKind

	// 共通フィールド
	Location  string
	Verified  bool // 作成時は常にfalse。管理者のみ変更できる。
	CreatedAt time.Time

	// インフルエンサー固有フィールド
	Category       string
	Platforms      []string
	FollowerCount  int
	EngagementRate string
	Pricing        string
	ContentSamples []string // 掲載実績のURL。先頭がショーケース取得元になる。

	// ブランド固有フィールド
	CompanyType    string
	Industry       string
	MarketingGoals string
	Budget         string
}

// ProfilePatch はプロフィールの部分更新を表す。nilフィールドは変更しない。
// ID・UserID・Kind・CreatedAtは対象外。VerifiedはSetVerifiedでのみ変更する。
type ProfilePatch struct {
	Location       *string
	Category       *string
	Platforms      *[]string
	FollowerCount  *int
	EngagementRate *string
	Pricing        *string
	ContentSamples *[]string
	CompanyType    *string
	Industry       *string
	MarketingGoals *string
	Budget         *string
}

// ProfileFilter はディスカバリ検索の絞り込み条件を表す。
// 空文字列および"any"は「絞り込まない」を意味する。
// 列挙フィールドは大文字小文字を区別しない完全一致、
// Platformsは要求セットとプロフィールのセットの積が空でないこと（OR条件）。
type ProfileFilter struct {
	Category  string
	Industry  string
	Location  string
	Budget    string
	Platforms []string

	// Query はフリーワード検索。オーナーの表示名・自己紹介と
	// プロフィールのカテゴリ・業種に対する大文字小文字を区別しない
	// 部分一致で絞り込む。オーナー情報を参照するため、評価は
	// リポジトリではなくサービス層で行われる。
	Query string
}

// FilterAny は「すべてに一致する」を意味するフィルタ値。
const FilterAny = "any"
