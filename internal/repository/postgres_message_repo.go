package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/collabo/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

const messageColumns = `id, sender_id, recipient_id, content, read, created_at`

// Create はメッセージを作成し、採番されたIDを含むメッセージを返す。
func (r *PostgresMessageRepo) Create(ctx context.Context, message *model.Message) (*model.Message, error) {
	created := *message
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (sender_id, recipient_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, read, created_at`,
		message.SenderID, message.RecipientID, message.Content,
	).Scan(&created.ID, &created.Read, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &created, nil
}

func (r *PostgresMessageRepo) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*model.Message, 0)
	for rows.Next() {
		m := &model.Message{}
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content,
			&m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// ListBetween は2ユーザー間の全メッセージを送信時刻の昇順で取得する。
// 同時刻のメッセージはIDの昇順で順序を安定させる。
func (r *PostgresMessageRepo) ListBetween(ctx context.Context, userA, userB int64) ([]*model.Message, error) {
	return r.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE (sender_id = $1 AND recipient_id = $2)
		    OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY created_at, id`,
		userA, userB,
	)
}

// ListByUser は指定ユーザーが送受信した全メッセージを送信時刻の降順で取得する。
func (r *PostgresMessageRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Message, error) {
	return r.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE sender_id = $1 OR recipient_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

// MarkRead はsenderIDからrecipientIDへの未読メッセージを既読にし、
// 状態が変化した件数を返す。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, senderID, recipientID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read = TRUE
		 WHERE sender_id = $1 AND recipient_id = $2 AND read = FALSE`,
		senderID, recipientID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return count, nil
}

// Totals は全体のメッセージ統計を取得する。
func (r *PostgresMessageRepo) Totals(ctx context.Context) (*model.MessageTotals, error) {
	totals := &model.MessageTotals{}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT (LEAST(sender_id, recipient_id), GREATEST(sender_id, recipient_id))),
		        COUNT(*) FILTER (WHERE read = FALSE)
		 FROM messages`,
	).Scan(&totals.MessageCount, &totals.ConversationCount, &totals.UnreadCount)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query message totals: %w", err)
	}
	return totals, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
