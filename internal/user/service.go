// Package user はユーザー管理と退会処理に関するビジネスロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/repository"
)

// Stats はマーケットプレイス全体の統計情報。
type Stats struct {
	TotalUsers        int64
	InfluencerCount   int64
	BrandCount        int64
	MessageCount      int64
	ConversationCount int64
	UnreadCount       int64
}

// Service はユーザー管理に関するビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	messageRepo repository.MessageRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
	}
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// List は全ユーザーをID昇順で取得する。管理者専用。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update はユーザー情報をパッチで部分更新する。
func (s *Service) Update(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
	updated, err := s.userRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	slog.Info("user updated", slog.Int64("user_id", id))
	return updated, nil
}

// Withdraw はユーザーを退会させる。
// 関連するセッションとプロフィールも削除する。
// 送受信済みメッセージは相手側の履歴保全のため削除しない。
func (s *Service) Withdraw(ctx context.Context, id int64) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError(id)
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	if err := s.profileRepo.DeleteByUserID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete profiles: %w", err)
	}
	if err := s.userRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user withdrawn", slog.Int64("user_id", id))
	return nil
}

// GetStats はマーケットプレイス全体の統計を取得する。管理者専用。
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	stats := &Stats{TotalUsers: int64(len(users))}
	for _, u := range users {
		switch u.Role {
		case model.RoleInfluencer:
			stats.InfluencerCount++
		case model.RoleBrand:
			stats.BrandCount++
		}
	}

	totals, err := s.messageRepo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get message totals: %w", err)
	}
	stats.MessageCount = totals.MessageCount
	stats.ConversationCount = totals.ConversationCount
	stats.UnreadCount = totals.UnreadCount

	return stats, nil
}
