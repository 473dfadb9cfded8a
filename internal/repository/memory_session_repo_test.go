package repository

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/collabo/internal/model"
)

// TestMemorySessionRepository_CreateAndFind はセッションの保存と検索を検証する。
func TestMemorySessionRepository_CreateAndFind(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	session := &model.Session{
		ID:        "session-abc",
		UserID:    1,
		ExpiresAt: time.Now().Add(1 * time.Hour),
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	found, err := repo.FindByID(ctx, "session-abc")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found == nil {
		t.Fatal("expected session, got nil")
	}
	if found.UserID != 1 {
		t.Errorf("UserID = %d, want 1", found.UserID)
	}
}

// TestMemorySessionRepository_FindExpired は期限切れセッションがnilになることを検証する。
func TestMemorySessionRepository_FindExpired(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	session := &model.Session{
		ID:        "expired-session",
		UserID:    1,
		ExpiresAt: time.Now().Add(-1 * time.Minute),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	found, err := repo.FindByID(ctx, "expired-session")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found != nil {
		t.Errorf("expired session should be nil, got %+v", found)
	}
}

// TestMemorySessionRepository_DeleteByID はセッション削除を検証する。
func TestMemorySessionRepository_DeleteByID(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	session := &model.Session{
		ID:        "to-delete",
		UserID:    1,
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := repo.DeleteByID(ctx, "to-delete"); err != nil {
		t.Fatalf("DeleteByID returned error: %v", err)
	}

	found, err := repo.FindByID(ctx, "to-delete")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found != nil {
		t.Error("session should be deleted")
	}
}

// TestMemorySessionRepository_DeleteByUserID は指定ユーザーの全セッション削除を検証する。
func TestMemorySessionRepository_DeleteByUserID(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	expires := time.Now().Add(1 * time.Hour)
	sessions := []*model.Session{
		{ID: "s1", UserID: 1, ExpiresAt: expires},
		{ID: "s2", UserID: 1, ExpiresAt: expires},
		{ID: "s3", UserID: 2, ExpiresAt: expires},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	if err := repo.DeleteByUserID(ctx, 1); err != nil {
		t.Fatalf("DeleteByUserID returned error: %v", err)
	}

	for _, id := range []string{"s1", "s2"} {
		found, _ := repo.FindByID(ctx, id)
		if found != nil {
			t.Errorf("session %s should be deleted", id)
		}
	}

	remaining, _ := repo.FindByID(ctx, "s3")
	if remaining == nil {
		t.Error("session s3 of another user should remain")
	}
}

// TestMemorySessionRepository_DeleteExpired は期限切れセッションのみ削除し
// 件数を返すことを検証する。
func TestMemorySessionRepository_DeleteExpired(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	sessions := []*model.Session{
		{ID: "live", UserID: 1, ExpiresAt: time.Now().Add(1 * time.Hour)},
		{ID: "dead-1", UserID: 1, ExpiresAt: time.Now().Add(-1 * time.Minute)},
		{ID: "dead-2", UserID: 2, ExpiresAt: time.Now().Add(-2 * time.Hour)},
	}
	for _, s := range sessions {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	count, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if count != 2 {
		t.Errorf("deleted count = %d, want 2", count)
	}

	live, _ := repo.FindByID(ctx, "live")
	if live == nil {
		t.Error("live session should remain")
	}
}
