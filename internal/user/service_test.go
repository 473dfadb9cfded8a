package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/repository"
)

type testRepos struct {
	users    *repository.MemoryUserRepository
	profiles *repository.MemoryProfileRepository
	sessions *repository.MemorySessionRepository
	messages *repository.MemoryMessageRepository
}

func newTestService(t *testing.T) (*Service, testRepos) {
	t.Helper()
	repos := testRepos{
		users:    repository.NewMemoryUserRepository(),
		profiles: repository.NewMemoryProfileRepository(),
		sessions: repository.NewMemorySessionRepository(),
		messages: repository.NewMemoryMessageRepository(),
	}
	svc := NewService(repos.users, repos.profiles, repos.sessions, repos.messages)
	return svc, repos
}

func seedUser(t *testing.T, repos testRepos, username string, role model.Role) *model.User {
	t.Helper()
	user, err := repos.users.Create(context.Background(), &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

// TestService_Get はユーザー取得と未存在エラーを検証する。
func TestService_Get(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	created := seedUser(t, repos, "alice", model.RoleInfluencer)

	user, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want %q", user.Username, "alice")
	}

	_, err = svc.Get(ctx, 999)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeUserNotFound)
	}
}

// TestService_Update は部分更新と未存在エラーを検証する。
func TestService_Update(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	created := seedUser(t, repos, "alice", model.RoleInfluencer)

	newBio := "更新後の自己紹介"
	updated, err := svc.Update(ctx, created.ID, &model.UserPatch{Bio: &newBio})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Bio != newBio {
		t.Errorf("Bio = %q, want %q", updated.Bio, newBio)
	}

	_, err = svc.Update(ctx, 999, &model.UserPatch{Bio: &newBio})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeUserNotFound)
	}
}

// TestService_Withdraw は退会時のセッション・プロフィール削除と
// メッセージ保全を検証する。
func TestService_Withdraw(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repos, "alice", model.RoleInfluencer)
	bob := seedUser(t, repos, "bob", model.RoleBrand)

	if _, err := repos.profiles.Create(ctx, &model.Profile{
		UserID:   alice.ID,
		Kind:     model.KindInfluencer,
		Category: "Beauty",
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	if err := repos.sessions.Create(ctx, &model.Session{
		ID:     "alice-session",
		UserID: alice.ID,
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if _, err := repos.messages.Create(ctx, &model.Message{
		SenderID:    alice.ID,
		RecipientID: bob.ID,
		Content:     "hello",
	}); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	if err := svc.Withdraw(ctx, alice.ID); err != nil {
		t.Fatalf("Withdraw returned error: %v", err)
	}

	if u, _ := repos.users.FindByID(ctx, alice.ID); u != nil {
		t.Error("user should be deleted")
	}
	if p, _ := repos.profiles.FindByOwner(ctx, alice.ID, model.KindInfluencer); p != nil {
		t.Error("profile should be deleted")
	}

	// メッセージは相手の履歴保全のため残る
	remaining, _ := repos.messages.ListByUser(ctx, bob.ID)
	if len(remaining) != 1 {
		t.Errorf("messages of counterpart = %d, want 1", len(remaining))
	}

	// 退会済みユーザーの再退会は404相当
	err := svc.Withdraw(ctx, alice.ID)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeUserNotFound)
	}
}

// TestService_GetStats は管理者向け統計の算出を検証する。
func TestService_GetStats(t *testing.T) {
	svc, repos := newTestService(t)
	ctx := context.Background()
	alice := seedUser(t, repos, "alice", model.RoleInfluencer)
	bob := seedUser(t, repos, "bob", model.RoleBrand)
	seedUser(t, repos, "carol", model.RoleInfluencer)
	seedUser(t, repos, "admin", model.RoleAdmin)

	if _, err := repos.messages.Create(ctx, &model.Message{
		SenderID:    alice.ID,
		RecipientID: bob.ID,
		Content:     "a",
	}); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	if _, err := repos.messages.Create(ctx, &model.Message{
		SenderID:    bob.ID,
		RecipientID: alice.ID,
		Content:     "b",
		Read:        true,
	}); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	stats, err := svc.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}
	if stats.TotalUsers != 4 {
		t.Errorf("TotalUsers = %d, want 4", stats.TotalUsers)
	}
	if stats.InfluencerCount != 2 {
		t.Errorf("InfluencerCount = %d, want 2", stats.InfluencerCount)
	}
	if stats.BrandCount != 1 {
		t.Errorf("BrandCount = %d, want 1", stats.BrandCount)
	}
	if stats.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", stats.MessageCount)
	}
	if stats.ConversationCount != 1 {
		t.Errorf("ConversationCount = %d, want 1", stats.ConversationCount)
	}
	if stats.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", stats.UnreadCount)
	}
}
