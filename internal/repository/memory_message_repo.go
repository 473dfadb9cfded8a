package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

// MemoryMessageRepository はメッセージのインメモリ実装。
type MemoryMessageRepository struct {
	mu       sync.Mutex
	seq      int64
	messages map[int64]model.Message
}

// NewMemoryMessageRepository はMemoryMessageRepositoryを生成する。
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{messages: make(map[int64]model.Message)}
}

// Create はメッセージを新規作成する。
func (r *MemoryMessageRepository) Create(ctx context.Context, message *model.Message) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	created := *message
	created.ID = r.seq
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	r.messages[created.ID] = created
	return &created, nil
}

// ListBetween は2ユーザー間の全メッセージを送信時刻の昇順で返す。
// 同時刻のメッセージはIDの昇順で並べ、順序を安定させる。
func (r *MemoryMessageRepository) ListBetween(ctx context.Context, userA, userB int64) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := make([]*model.Message, 0)
	for _, m := range r.messages {
		if (m.SenderID == userA && m.RecipientID == userB) ||
			(m.SenderID == userB && m.RecipientID == userA) {
			found := m
			messages = append(messages, &found)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// ListByUser は指定ユーザーが送受信した全メッセージを送信時刻の降順で返す。
func (r *MemoryMessageRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	messages := make([]*model.Message, 0)
	for _, m := range r.messages {
		if m.SenderID == userID || m.RecipientID == userID {
			found := m
			messages = append(messages, &found)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
	return messages, nil
}

// MarkRead はsenderIDからrecipientIDへの未読メッセージを既読にする。
// 既に既読のメッセージは件数に含めない。
func (r *MemoryMessageRepository) MarkRead(ctx context.Context, senderID, recipientID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, m := range r.messages {
		if m.SenderID == senderID && m.RecipientID == recipientID && !m.Read {
			m.Read = true
			r.messages[id] = m
			count++
		}
	}
	return count, nil
}

// Totals は全体のメッセージ統計を返す。
// 会話数はユーザーの組み合わせの数として数える。
func (r *MemoryMessageRepository) Totals(ctx context.Context) (*model.MessageTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pairs := make(map[[2]int64]struct{})
	totals := &model.MessageTotals{}
	for _, m := range r.messages {
		totals.MessageCount++
		if !m.Read {
			totals.UnreadCount++
		}
		a, b := m.SenderID, m.RecipientID
		if a > b {
			a, b = b, a
		}
		pairs[[2]int64{a, b}] = struct{}{}
	}
	totals.ConversationCount = int64(len(pairs))
	return totals, nil
}

var _ MessageRepository = (*MemoryMessageRepository)(nil)
