// Package profile はインフルエンサー・ブランドプロフィールの
// 作成、更新、検索に関するビジネスロジックを提供する。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/repository"
	"github.com/hitoshi/collabo/internal/security"
)

// Service はプロフィールに関するビジネスロジックを提供する。
type Service struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	sanitizer   security.ContentSanitizerService
	ssrfGuard   security.SSRFGuardService
}

// NewService はServiceを生成する。
func NewService(
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	ssrfGuard security.SSRFGuardService,
) *Service {
	return &Service{
		profileRepo: profileRepo,
		userRepo:    userRepo,
		sanitizer:   sanitizer,
		ssrfGuard:   ssrfGuard,
	}
}

// GetByOwner は指定ユーザーの指定種別プロフィールを取得する。
// 存在しない場合はPROFILE_NOT_FOUNDエラーを返す。
func (s *Service) GetByOwner(ctx context.Context, userID int64, kind model.ProfileKind) (*model.Profile, error) {
	p, err := s.profileRepo.FindByOwner(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if p == nil {
		return nil, model.NewProfileNotFoundError(kind)
	}
	return p, nil
}

// Create はプロフィールを新規作成する。
// ユーザーの役割とプロフィール種別が一致しない場合は拒否する。
// 既にプロフィールが存在する場合はPROFILE_ALREADY_EXISTSエラーを返す。
// 作成は常に新規作成であり、既存プロフィールの置き換えは行わない。
func (s *Service) Create(ctx context.Context, user *model.User, profile *model.Profile) (*model.Profile, error) {
	if !profile.Kind.Valid() {
		return nil, model.NewInvalidRoleError(string(profile.Kind))
	}
	if string(user.Role) != string(profile.Kind) {
		return nil, model.NewRoleForbiddenError(model.Role(profile.Kind))
	}

	if err := s.validate(profile); err != nil {
		return nil, err
	}
	s.sanitize(profile)

	profile.UserID = user.ID
	profile.Verified = false

	created, err := s.profileRepo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewProfileExistsError(profile.Kind)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	slog.Info("profile created",
		slog.Int64("profile_id", created.ID),
		slog.Int64("user_id", user.ID),
		slog.String("kind", string(created.Kind)),
	)
	return created, nil
}

// Update は自分のプロフィールをパッチで部分更新する。
// パッチのnil以外のフィールドだけが反映される。
func (s *Service) Update(ctx context.Context, user *model.User, kind model.ProfileKind, patch *model.ProfilePatch) (*model.Profile, error) {
	existing, err := s.profileRepo.FindByOwner(ctx, user.ID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if existing == nil {
		return nil, model.NewProfileNotFoundError(kind)
	}

	if patch.ContentSamples != nil {
		for _, sample := range *patch.ContentSamples {
			if err := s.ssrfGuard.ValidateURL(sample); err != nil {
				return nil, model.NewInvalidURLError(sample)
			}
		}
	}
	if patch.MarketingGoals != nil {
		sanitized := s.sanitizer.SanitizeRichText(*patch.MarketingGoals)
		patch.MarketingGoals = &sanitized
	}
	if patch.Location != nil {
		stripped := s.sanitizer.StripTags(*patch.Location)
		patch.Location = &stripped
	}
	if patch.Category != nil {
		stripped := s.sanitizer.StripTags(*patch.Category)
		patch.Category = &stripped
	}

	updated, err := s.profileRepo.Update(ctx, existing.ID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if updated == nil {
		return nil, model.NewProfileNotFoundError(kind)
	}

	slog.Info("profile updated",
		slog.Int64("profile_id", updated.ID),
		slog.Int64("user_id", user.ID),
	)
	return updated, nil
}

// List は指定種別の全プロフィールをID昇順で取得する。
func (s *Service) List(ctx context.Context, kind model.ProfileKind) ([]*model.Profile, error) {
	if !kind.Valid() {
		return nil, model.NewInvalidRoleError(string(kind))
	}
	profiles, err := s.profileRepo.List(ctx, kind, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// Search は指定種別のプロフィールをフィルタ条件で検索する。
// 空文字および"any"の条件は無視される。
// Queryが指定された場合は、構造化フィルタの結果をさらに
// フリーワードの部分一致で絞り込む。
func (s *Service) Search(ctx context.Context, kind model.ProfileKind, filter *model.ProfileFilter) ([]*model.Profile, error) {
	if !kind.Valid() {
		return nil, model.NewInvalidRoleError(string(kind))
	}
	profiles, err := s.profileRepo.List(ctx, kind, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	if filter == nil || strings.TrimSpace(filter.Query) == "" {
		return profiles, nil
	}
	return s.matchQuery(ctx, profiles, filter.Query)
}

// matchQuery はフリーワード検索を適用する。
// 対象はオーナーの表示名・自己紹介、プロフィールのカテゴリ・業種で、
// 大文字小文字を区別しない部分一致。オーナーが既に退会している
// プロフィールは結果から除外する。
func (s *Service) matchQuery(ctx context.Context, profiles []*model.Profile, query string) ([]*model.Profile, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	matched := make([]*model.Profile, 0, len(profiles))
	for _, p := range profiles {
		owner, err := s.userRepo.FindByID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to find profile owner: %w", err)
		}
		if owner == nil {
			continue
		}
		if containsFold(owner.Name, query) ||
			containsFold(owner.Bio, query) ||
			containsFold(p.Category, query) ||
			containsFold(p.Industry, query) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// containsFold は大文字小文字を区別しない部分一致判定。
func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

// SetVerified はプロフィールの認証済みフラグを設定する。管理者専用。
func (s *Service) SetVerified(ctx context.Context, profileID int64, verified bool) (*model.Profile, error) {
	updated, err := s.profileRepo.SetVerified(ctx, profileID, verified)
	if err != nil {
		return nil, fmt.Errorf("failed to set verified: %w", err)
	}
	if updated == nil {
		return nil, model.NewProfileNotFoundError(model.KindInfluencer)
	}

	slog.Info("profile verification changed",
		slog.Int64("profile_id", profileID),
		slog.Bool("verified", verified),
	)
	return updated, nil
}

// validate は種別ごとの必須フィールドとコンテンツサンプルURLを検証する。
func (s *Service) validate(profile *model.Profile) error {
	switch profile.Kind {
	case model.KindInfluencer:
		if strings.TrimSpace(profile.Category) == "" {
			return model.NewMissingFieldError("category")
		}
	case model.KindBrand:
		if strings.TrimSpace(profile.CompanyType) == "" {
			return model.NewMissingFieldError("companyType")
		}
		if strings.TrimSpace(profile.Industry) == "" {
			return model.NewMissingFieldError("industry")
		}
	}
	for _, sample := range profile.ContentSamples {
		if err := s.ssrfGuard.ValidateURL(sample); err != nil {
			return model.NewInvalidURLError(sample)
		}
	}
	return nil
}

// sanitize はユーザー入力フィールドをサニタイズする。
// マーケティング目標は限定的なHTMLを許可し、その他はタグを除去する。
func (s *Service) sanitize(profile *model.Profile) {
	profile.MarketingGoals = s.sanitizer.SanitizeRichText(profile.MarketingGoals)
	profile.Location = s.sanitizer.StripTags(profile.Location)
	profile.Category = s.sanitizer.StripTags(profile.Category)
	profile.CompanyType = s.sanitizer.StripTags(profile.CompanyType)
	profile.Industry = s.sanitizer.StripTags(profile.Industry)
}
