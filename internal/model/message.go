package model

import "time"

// Message はユーザー間のダイレクトメッセージを表す。
// Readフラグ以外はイミュータブルで、削除されることはない。
// Readはfalse→trueの一方向にのみ遷移する（マーク済み既読操作経由のみ）。
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Content     string
	Read        bool
	CreatedAt   time.Time
}

// ConversationSummary は閲覧者から見たひとつの会話の要約を表す。
// 保存されない派生データで、呼び出しのたびに再計算される。
type ConversationSummary struct {
	CounterpartID int64
	Counterpart   *User // 相手のユーザー情報。ルート層のレスポンス組み立てに使う。
	LastMessage   Message
	UnreadCount   int // 相手→閲覧者の未読メッセージ数
}

// MessageTotals はプラットフォーム全体のメッセージ集計を表す。
// 管理者ダッシュボード用。ユーザーペアを総当たりせず、
// 全メッセージの1回の走査（またはSQL集計）で算出する。
type MessageTotals struct {
	MessageCount      int64 // 総メッセージ数
	ConversationCount int64 // 相異なるユーザーペアの数
	UnreadCount       int64 // 未読メッセージ総数
}
