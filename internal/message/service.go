// Package message は1対1メッセージの送信、履歴取得、既読管理に関する
// ビジネスロジックを提供する。
package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/repository"
	"github.com/hitoshi/collabo/internal/security"
)

// Service はメッセージに関するビジネスロジックを提供する。
type Service struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
	}
}

// Send はメッセージを送信する。
// 本文はHTMLタグを除去した上で保存され、除去後に空になる場合は拒否する。
// 自分自身への送信、存在しない宛先への送信も拒否する。
// 新規メッセージは常に未読として保存される。
func (s *Service) Send(ctx context.Context, senderID, recipientID int64, content string) (*model.Message, error) {
	if senderID == recipientID {
		return nil, model.NewSelfMessageError()
	}

	content = strings.TrimSpace(s.sanitizer.StripTags(content))
	if content == "" {
		return nil, model.NewEmptyMessageError()
	}

	recipient, err := s.userRepo.FindByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to find recipient: %w", err)
	}
	if recipient == nil {
		return nil, model.NewUserNotFoundError(recipientID)
	}

	created, err := s.messageRepo.Create(ctx, &model.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Read:        false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	slog.Info("message sent",
		slog.Int64("message_id", created.ID),
		slog.Int64("sender_id", senderID),
		slog.Int64("recipient_id", recipientID),
	)
	return created, nil
}

// History は2ユーザー間の全メッセージを送信時刻の昇順で取得する。
// どちらのユーザーから見ても同じ列を返す。履歴の取得自体は
// 既読状態を変更しない。
func (s *Service) History(ctx context.Context, userID, counterpartID int64) ([]*model.Message, error) {
	messages, err := s.messageRepo.ListBetween(ctx, userID, counterpartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// MarkRead は相手から自分宛の未読メッセージをすべて既読にし、
// 状態が変化した件数を返す。自分が送信したメッセージには影響しない。
func (s *Service) MarkRead(ctx context.Context, userID, counterpartID int64) (int64, error) {
	count, err := s.messageRepo.MarkRead(ctx, counterpartID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return count, nil
}

// Conversations は自分が参加する会話の一覧を、最終メッセージの新しい順で返す。
// 各会話には相手ユーザー、最終メッセージ、相手からの未読件数が含まれる。
func (s *Service) Conversations(ctx context.Context, userID int64) ([]*model.ConversationSummary, error) {
	messages, err := s.messageRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// 降順の列を前から走査するため、相手ごとの最初の出現が最終メッセージになる
	order := make([]int64, 0)
	summaries := make(map[int64]*model.ConversationSummary)
	for _, m := range messages {
		counterpartID := m.SenderID
		if counterpartID == userID {
			counterpartID = m.RecipientID
		}
		summary, ok := summaries[counterpartID]
		if !ok {
			summary = &model.ConversationSummary{
				CounterpartID: counterpartID,
				LastMessage:   *m,
			}
			summaries[counterpartID] = summary
			order = append(order, counterpartID)
		}
		if m.SenderID == counterpartID && !m.Read {
			summary.UnreadCount++
		}
	}

	result := make([]*model.ConversationSummary, 0, len(order))
	for _, counterpartID := range order {
		summary := summaries[counterpartID]
		counterpart, err := s.userRepo.FindByID(ctx, counterpartID)
		if err != nil || counterpart == nil {
			// 相手のユーザーレコードを引けない会話（退会済みなど）は
			// 一覧全体を失敗させず、その会話だけを除外する
			if err != nil {
				slog.Warn("skipping conversation: counterpart lookup failed",
					slog.Int64("counterpart_id", counterpartID),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		summary.Counterpart = counterpart
		result = append(result, summary)
	}
	return result, nil
}

// Totals は全体のメッセージ統計を取得する。管理者専用。
func (s *Service) Totals(ctx context.Context) (*model.MessageTotals, error) {
	totals, err := s.messageRepo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get message totals: %w", err)
	}
	return totals, nil
}
