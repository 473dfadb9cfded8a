// Package repository はデータアクセス層のインターフェースと実装を提供する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/collabo/internal/model"
)

// ErrDuplicate は一意制約違反を表すセンチネルエラー。
// メモリ実装とPostgres実装の双方がこれを返す。
var ErrDuplicate = errors.New("repository: duplicate entry")

// UserRepository はユーザーの永続化を担う。
type UserRepository interface {
	// FindByID はIDでユーザーを検索する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
	// FindByUsername はユーザー名でユーザーを検索する。大文字小文字を区別しない。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字を区別しない。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create はユーザーを新規作成し、IDを採番して返す。
	// ユーザー名またはメールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) (*model.User, error)
	// Update はパッチのnil以外のフィールドだけを反映する。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error)
	// List は全ユーザーをID昇順で返す。
	List(ctx context.Context) ([]*model.User, error)
	// DeleteByID はユーザーを削除する。存在しない場合は何もしない。
	DeleteByID(ctx context.Context, id int64) error
}

// SessionRepository はセッションの永続化を担う。
type SessionRepository interface {
	// Create はセッションを保存する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID はセッションIDで検索する。見つからない、または期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID はセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository はプロフィールの永続化を担う。
// インフルエンサーとブランドのプロフィールは同一コレクションに
// kind列で区別して格納する。
type ProfileRepository interface {
	// FindByID はIDでプロフィールを検索する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Profile, error)
	// FindByOwner は所有ユーザーと種別でプロフィールを検索する。
	// 見つからない場合はnilを返す。
	FindByOwner(ctx context.Context, userID int64, kind model.ProfileKind) (*model.Profile, error)
	// Create はプロフィールを新規作成し、IDを採番して返す。
	// 同一ユーザー・同一種別のプロフィールが既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, profile *model.Profile) (*model.Profile, error)
	// Update はパッチのnil以外のフィールドだけを反映する。
	// 対象が存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, patch *model.ProfilePatch) (*model.Profile, error)
	// List は指定種別のプロフィールをフィルタ条件で絞り込んでID昇順で返す。
	// filterがnilの場合は絞り込みなし。
	List(ctx context.Context, kind model.ProfileKind, filter *model.ProfileFilter) ([]*model.Profile, error)
	// SetVerified は認証済みフラグを設定する。
	// 対象が存在しない場合はnilを返す。
	SetVerified(ctx context.Context, id int64, verified bool) (*model.Profile, error)
	// DeleteByUserID は指定ユーザーの全プロフィールを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
}

// MessageRepository はメッセージの永続化を担う。
type MessageRepository interface {
	// Create はメッセージを新規作成し、IDを採番して返す。
	Create(ctx context.Context, message *model.Message) (*model.Message, error)
	// ListBetween は2ユーザー間の全メッセージを送信時刻の昇順で返す。
	// 同時刻の場合はIDの昇順で順序を安定させる。
	ListBetween(ctx context.Context, userA, userB int64) ([]*model.Message, error)
	// ListByUser は指定ユーザーが送信または受信した全メッセージを
	// 送信時刻の降順で返す。
	ListByUser(ctx context.Context, userID int64) ([]*model.Message, error)
	// MarkRead はsenderIDからrecipientIDへの未読メッセージを既読にし、
	// 状態が変化した件数を返す。
	MarkRead(ctx context.Context, senderID, recipientID int64) (int64, error)
	// Totals は全体のメッセージ統計を返す。
	Totals(ctx context.Context) (*model.MessageTotals, error)
}
