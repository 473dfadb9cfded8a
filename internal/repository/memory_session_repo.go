package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

// MemorySessionRepository はセッションのインメモリ実装。
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

// NewMemorySessionRepository はMemorySessionRepositoryを生成する。
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]model.Session)}
}

// Create はセッションを保存する。
func (r *MemorySessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = *session
	return nil
}

// FindByID はセッションIDで検索する。期限切れはnil扱い。
func (r *MemorySessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, nil
	}
	found := s
	return &found, nil
}

// DeleteByID はセッションを削除する。
func (r *MemorySessionRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *MemorySessionRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	return nil
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *MemorySessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var count int64
	for id, s := range r.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

var _ SessionRepository = (*MemorySessionRepository)(nil)
