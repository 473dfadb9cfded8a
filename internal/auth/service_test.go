package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/repository"
)

func newTestService() *Service {
	return NewService(
		repository.NewMemoryUserRepository(),
		repository.NewMemorySessionRepository(),
		ServiceConfig{SessionMaxAge: 3600},
	)
}

func validInput() RegisterInput {
	return RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
		Role:     "influencer",
		Name:     "Alice",
	}
}

// TestService_Register は正常な登録でユーザーとセッションが発行されることを検証する。
func TestService_Register(t *testing.T) {
	svc := newTestService()

	user, session, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Error("user ID should be assigned")
	}
	if user.Role != model.RoleInfluencer {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleInfluencer)
	}
	if user.PasswordHash == "password123" {
		t.Error("password should be hashed, not stored as plaintext")
	}
	if session == nil || session.ID == "" {
		t.Fatal("session should be created")
	}
	if session.UserID != user.ID {
		t.Errorf("session.UserID = %d, want %d", session.UserID, user.ID)
	}
}

// TestService_Register_Validation は入力検証の各エラーパスを検証する。
func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*RegisterInput)
		wantCode string
	}{
		{
			name:     "ユーザー名が空",
			mutate:   func(in *RegisterInput) { in.Username = "  " },
			wantCode: model.ErrCodeMissingField,
		},
		{
			name:     "メールアドレスが空",
			mutate:   func(in *RegisterInput) { in.Email = "" },
			wantCode: model.ErrCodeMissingField,
		},
		{
			name:     "パスワードが短い",
			mutate:   func(in *RegisterInput) { in.Password = "short" },
			wantCode: model.ErrCodeWeakPassword,
		},
		{
			name:     "未知のロール",
			mutate:   func(in *RegisterInput) { in.Role = "superuser" },
			wantCode: model.ErrCodeInvalidRole,
		},
		{
			name:     "adminロールでの自己登録は禁止",
			mutate:   func(in *RegisterInput) { in.Role = "admin" },
			wantCode: model.ErrCodeInvalidRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService()
			input := validInput()
			tt.mutate(&input)

			_, _, err := svc.Register(context.Background(), input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

// TestService_Register_Duplicate はユーザー名・メールの重複を検証する。
// 重複チェックは大文字小文字を区別しない。
func TestService_Register_Duplicate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, validInput()); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	dup := validInput()
	dup.Username = "ALICE"
	dup.Email = "other@example.com"
	_, _, err := svc.Register(ctx, dup)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateUsername {
		t.Errorf("duplicate username error = %v, want code %s", err, model.ErrCodeDuplicateUsername)
	}

	dup = validInput()
	dup.Username = "bob"
	dup.Email = "Alice@Example.com"
	_, _, err = svc.Register(ctx, dup)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("duplicate email error = %v, want code %s", err, model.ErrCodeDuplicateEmail)
	}
}

// TestService_EnsureAdmin は起動時の管理者シードを検証する。
// 作成された管理者はadminロールを持ち、パスワードでログインできる。
func TestService_EnsureAdmin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "admin-pass-123"); err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}

	user, _, err := svc.Login(ctx, "admin", "admin-pass-123")
	if err != nil {
		t.Fatalf("Login as admin returned error: %v", err)
	}
	if user.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleAdmin)
	}
	if user.PasswordHash == "admin-pass-123" {
		t.Error("admin password should be hashed, not stored as plaintext")
	}
}

// TestService_EnsureAdmin_Idempotent は同名ユーザーが存在する場合に
// 何もしないことを検証する。
func TestService_EnsureAdmin_Idempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "admin-pass-123"); err != nil {
		t.Fatalf("first EnsureAdmin returned error: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "another-pass-456"); err != nil {
		t.Fatalf("second EnsureAdmin returned error: %v", err)
	}

	// 既存の管理者のパスワードは上書きされない
	if _, _, err := svc.Login(ctx, "admin", "admin-pass-123"); err != nil {
		t.Errorf("original password should still work: %v", err)
	}
	if _, _, err := svc.Login(ctx, "admin", "another-pass-456"); err == nil {
		t.Error("second password should not replace the original")
	}
}

// TestService_EnsureAdmin_Validation は管理者シードの入力検証を検証する。
func TestService_EnsureAdmin_Validation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	var apiErr *model.APIError
	if err := svc.EnsureAdmin(ctx, " ", "admin@example.com", "admin-pass-123"); !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingField {
		t.Errorf("blank username: error = %v, want code %s", err, model.ErrCodeMissingField)
	}
	if err := svc.EnsureAdmin(ctx, "admin", "", "admin-pass-123"); !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingField {
		t.Errorf("blank email: error = %v, want code %s", err, model.ErrCodeMissingField)
	}
	if err := svc.EnsureAdmin(ctx, "admin", "admin@example.com", "short"); !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeWeakPassword {
		t.Errorf("short password: error = %v, want code %s", err, model.ErrCodeWeakPassword)
	}
}

// TestService_Login は正常なログインを検証する。
func TestService_Login(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	user, session, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user ID = %d, want %d", user.ID, registered.ID)
	}
	if session == nil || session.ID == "" {
		t.Error("session should be created")
	}
}

// TestService_Login_InvalidCredentials は存在しないユーザーと
// パスワード不一致が同一のエラーになることを検証する。
func TestService_Login_InvalidCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, validInput()); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, _, errNoUser := svc.Login(ctx, "nobody", "password123")
	_, _, errWrongPass := svc.Login(ctx, "alice", "wrongpassword")

	var apiErr1, apiErr2 *model.APIError
	if !errors.As(errNoUser, &apiErr1) || !errors.As(errWrongPass, &apiErr2) {
		t.Fatalf("expected APIError, got %v and %v", errNoUser, errWrongPass)
	}
	if apiErr1.Code != model.ErrCodeInvalidCredentials || apiErr2.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("codes = %q and %q, want both %s", apiErr1.Code, apiErr2.Code, model.ErrCodeInvalidCredentials)
	}
	if apiErr1.Message != apiErr2.Message {
		t.Error("unknown user and wrong password must produce identical error messages")
	}
}

// TestService_Logout はセッション破棄後の認証失敗を検証する。
func TestService_Logout(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, session, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := svc.Logout(ctx, session.ID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}

	if _, err := svc.GetCurrentUser(ctx, session.ID); err == nil {
		t.Error("GetCurrentUser should fail after logout")
	}
}

// TestService_GetCurrentUser はセッションからのユーザー解決を検証する。
func TestService_GetCurrentUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, session, err := svc.Register(ctx, validInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	user, err := svc.GetCurrentUser(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("user ID = %d, want %d", user.ID, registered.ID)
	}

	if _, err := svc.GetCurrentUser(ctx, "unknown-session"); err == nil {
		t.Error("unknown session should fail")
	}
	if _, err := svc.GetCurrentUser(ctx, ""); err == nil {
		t.Error("empty session ID should fail")
	}
}
