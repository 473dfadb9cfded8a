package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

// MemoryProfileRepository はプロフィールのインメモリ実装。
// インフルエンサーとブランドを同一のマップに格納し、kindで区別する。
type MemoryProfileRepository struct {
	mu       sync.Mutex
	seq      int64
	profiles map[int64]model.Profile
}

// NewMemoryProfileRepository はMemoryProfileRepositoryを生成する。
func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: make(map[int64]model.Profile)}
}

// FindByID はIDでプロフィールを検索する。
func (r *MemoryProfileRepository) FindByID(ctx context.Context, id int64) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	return copyProfile(p), nil
}

// FindByOwner は所有ユーザーと種別でプロフィールを検索する。
func (r *MemoryProfileRepository) FindByOwner(ctx context.Context, userID int64, kind model.ProfileKind) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.profiles {
		if p.UserID == userID && p.Kind == kind {
			return copyProfile(p), nil
		}
	}
	return nil, nil
}

// Create はプロフィールを新規作成する。
// 同一ユーザー・同一種別の重複チェックは採番と同一ロック内で行う。
func (r *MemoryProfileRepository) Create(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.profiles {
		if p.UserID == profile.UserID && p.Kind == profile.Kind {
			return nil, ErrDuplicate
		}
	}

	r.seq++
	created := *profile
	created.ID = r.seq
	created.Platforms = append([]string(nil), profile.Platforms...)
	created.ContentSamples = append([]string(nil), profile.ContentSamples...)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	r.profiles[created.ID] = created
	return copyProfile(created), nil
}

// Update はパッチのnil以外のフィールドだけを反映する。
func (r *MemoryProfileRepository) Update(ctx context.Context, id int64, patch *model.ProfilePatch) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Platforms != nil {
		p.Platforms = append([]string(nil), (*patch.Platforms)...)
	}
	if patch.FollowerCount != nil {
		p.FollowerCount = *patch.FollowerCount
	}
	if patch.EngagementRate != nil {
		p.EngagementRate = *patch.EngagementRate
	}
	if patch.Pricing != nil {
		p.Pricing = *patch.Pricing
	}
	if patch.ContentSamples != nil {
		p.ContentSamples = append([]string(nil), (*patch.ContentSamples)...)
	}
	if patch.CompanyType != nil {
		p.CompanyType = *patch.CompanyType
	}
	if patch.Industry != nil {
		p.Industry = *patch.Industry
	}
	if patch.MarketingGoals != nil {
		p.MarketingGoals = *patch.MarketingGoals
	}
	if patch.Budget != nil {
		p.Budget = *patch.Budget
	}
	r.profiles[id] = p
	return copyProfile(p), nil
}

// List は指定種別のプロフィールをフィルタ条件で絞り込んでID昇順で返す。
func (r *MemoryProfileRepository) List(ctx context.Context, kind model.ProfileKind, filter *model.ProfileFilter) ([]*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profiles := make([]*model.Profile, 0)
	for _, p := range r.profiles {
		if p.Kind != kind {
			continue
		}
		if !matchProfile(&p, filter) {
			continue
		}
		profiles = append(profiles, copyProfile(p))
	}
	sortByID(profiles, func(p *model.Profile) int64 { return p.ID })
	return profiles, nil
}

// SetVerified は認証済みフラグを設定する。
func (r *MemoryProfileRepository) SetVerified(ctx context.Context, id int64, verified bool) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	p.Verified = verified
	r.profiles[id] = p
	return copyProfile(p), nil
}

// DeleteByUserID は指定ユーザーの全プロフィールを削除する。
func (r *MemoryProfileRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.profiles {
		if p.UserID == userID {
			delete(r.profiles, id)
		}
	}
	return nil
}

// matchProfile はフィルタ条件との一致を判定する。
// 空文字と"any"は条件なし扱い。文字列条件は大文字小文字を区別しない完全一致、
// プラットフォーム条件は指定値のいずれか1つ以上を含むこと。
func matchProfile(p *model.Profile, filter *model.ProfileFilter) bool {
	if filter == nil {
		return true
	}
	if !matchField(p.Category, filter.Category) {
		return false
	}
	if !matchField(p.Industry, filter.Industry) {
		return false
	}
	if !matchField(p.Location, filter.Location) {
		return false
	}
	if !matchField(p.Budget, filter.Budget) {
		return false
	}
	if len(filter.Platforms) > 0 {
		found := false
		for _, want := range filter.Platforms {
			for _, have := range p.Platforms {
				if strings.EqualFold(have, want) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchField(value, want string) bool {
	if want == "" || strings.EqualFold(want, model.FilterAny) {
		return true
	}
	return strings.EqualFold(value, want)
}

// copyProfile はスライスを含めた深いコピーを返す。
// 呼び出し側の変更が内部状態に波及しないようにする。
func copyProfile(p model.Profile) *model.Profile {
	p.Platforms = append([]string(nil), p.Platforms...)
	p.ContentSamples = append([]string(nil), p.ContentSamples...)
	return &p
}

var _ ProfileRepository = (*MemoryProfileRepository)(nil)
