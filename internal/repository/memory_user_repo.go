package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

// MemoryUserRepository はユーザーのインメモリ実装。
// プロセス内で完結し、IDは1から始まる単調増加の連番で採番する。
type MemoryUserRepository struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]model.User
}

// NewMemoryUserRepository はMemoryUserRepositoryを生成する。
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]model.User)}
}

// FindByID はIDでユーザーを検索する。
func (r *MemoryUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// FindByUsername はユーザー名でユーザーを検索する。大文字小文字を区別しない。
func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字を区別しない。
func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

// Create はユーザーを新規作成する。採番と重複チェックは同一ロック内で行う。
func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return nil, ErrDuplicate
		}
	}

	r.seq++
	created := *user
	created.ID = r.seq
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	r.users[created.ID] = created
	return &created, nil
}

// Update はパッチのnil以外のフィールドだけを反映する。
func (r *MemoryUserRepository) Update(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	r.users[id] = u
	updated := u
	return &updated, nil
}

// List は全ユーザーをID昇順で返す。
func (r *MemoryUserRepository) List(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		found := u
		users = append(users, &found)
	}
	sortByID(users, func(u *model.User) int64 { return u.ID })
	return users, nil
}

// DeleteByID はユーザーを削除する。
func (r *MemoryUserRepository) DeleteByID(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, id)
	return nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
