package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/user"
)

// --- モック定義 ---

type mockAdminService struct {
	listFn     func(ctx context.Context) ([]*model.User, error)
	updateFn   func(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error)
	withdrawFn func(ctx context.Context, id int64) error
	getStatsFn func(ctx context.Context) (*user.Stats, error)
}

func (m *mockAdminService) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAdminService) Update(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, nil
}

func (m *mockAdminService) Withdraw(ctx context.Context, id int64) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, id)
	}
	return nil
}

func (m *mockAdminService) GetStats(ctx context.Context) (*user.Stats, error) {
	if m.getStatsFn != nil {
		return m.getStatsFn(ctx)
	}
	return nil, nil
}

type mockProfileVerifier struct {
	setVerifiedFn func(ctx context.Context, profileID int64, verified bool) (*model.Profile, error)
}

func (m *mockProfileVerifier) SetVerified(ctx context.Context, profileID int64, verified bool) (*model.Profile, error) {
	if m.setVerifiedFn != nil {
		return m.setVerifiedFn(ctx, profileID, verified)
	}
	return nil, nil
}

// --- テスト ---

// TestAdminHandler_ListUsers_Success は全ユーザー一覧が返ることを検証する。
func TestAdminHandler_ListUsers_Success(t *testing.T) {
	svc := &mockAdminService{
		listFn: func(ctx context.Context) ([]*model.User, error) {
			return []*model.User{
				{ID: 1, Username: "alice", Role: model.RoleInfluencer},
				{ID: 2, Username: "bob", Role: model.RoleBrand},
			}, nil
		},
	}
	h := NewAdminHandler(svc, &mockProfileVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	w := httptest.NewRecorder()

	h.ListUsers(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result []map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(result))
	}
	if result[0]["username"] != "alice" {
		t.Errorf("first username = %v, want %q", result[0]["username"], "alice")
	}
}

// TestAdminHandler_UpdateUser_WithVerified_SetsProfileFlag は
// profileIdとverifiedが両方指定された場合にプロフィールの
// 認証済みフラグも更新されることを検証する。
func TestAdminHandler_UpdateUser_WithVerified_SetsProfileFlag(t *testing.T) {
	verifiedCalled := false
	verifier := &mockProfileVerifier{
		setVerifiedFn: func(ctx context.Context, profileID int64, verified bool) (*model.Profile, error) {
			verifiedCalled = true
			if profileID != 100 {
				t.Errorf("profileID = %d, want 100", profileID)
			}
			if !verified {
				t.Error("verified = false, want true")
			}
			return &model.Profile{ID: profileID, Verified: verified}, nil
		},
	}
	svc := &mockAdminService{
		updateFn: func(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
			if id != 1 {
				t.Errorf("id = %d, want 1", id)
			}
			if patch.Name == nil || *patch.Name != "Alice Updated" {
				t.Errorf("patch.Name = %v, want Alice Updated", patch.Name)
			}
			return &model.User{ID: id, Username: "alice", Name: "Alice Updated"}, nil
		},
	}
	h := NewAdminHandler(svc, verifier)

	body := `{"name":"Alice Updated","profileId":100,"verified":true}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/1", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	h.UpdateUser(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !verifiedCalled {
		t.Error("expected SetVerified to be called")
	}
}

// TestAdminHandler_UpdateUser_WithoutVerified_SkipsProfileFlag は
// 認証フラグの指定がない更新でプロフィール側が触られないことを検証する。
func TestAdminHandler_UpdateUser_WithoutVerified_SkipsProfileFlag(t *testing.T) {
	verifier := &mockProfileVerifier{
		setVerifiedFn: func(ctx context.Context, profileID int64, verified bool) (*model.Profile, error) {
			t.Error("SetVerified should not be called without profileId and verified")
			return nil, nil
		},
	}
	svc := &mockAdminService{
		updateFn: func(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error) {
			return &model.User{ID: id, Username: "alice"}, nil
		},
	}
	h := NewAdminHandler(svc, verifier)

	body := `{"bio":"new bio"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/1", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	h.UpdateUser(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestAdminHandler_UpdateUser_InvalidID_ReturnsBadRequest は
// 数値でないユーザーIDの更新が400になることを検証する。
func TestAdminHandler_UpdateUser_InvalidID_ReturnsBadRequest(t *testing.T) {
	h := NewAdminHandler(&mockAdminService{}, &mockProfileVerifier{})

	body := `{"bio":"new bio"}`
	req := httptest.NewRequest(http.MethodPut, "/api/admin/users/abc", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "abc")
	w := httptest.NewRecorder()

	h.UpdateUser(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestAdminHandler_DeleteUser_Success は退会処理の成功が204になることを検証する。
func TestAdminHandler_DeleteUser_Success(t *testing.T) {
	withdrawnID := int64(0)
	svc := &mockAdminService{
		withdrawFn: func(ctx context.Context, id int64) error {
			withdrawnID = id
			return nil
		},
	}
	h := NewAdminHandler(svc, &mockProfileVerifier{})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/2", nil)
	req = withChiURLParam(req, "id", "2")
	w := httptest.NewRecorder()

	h.DeleteUser(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if withdrawnID != 2 {
		t.Errorf("withdrawn ID = %d, want 2", withdrawnID)
	}
}

// TestAdminHandler_DeleteUser_NotFound は存在しないユーザーの退会が
// 404にマッピングされることを検証する。
func TestAdminHandler_DeleteUser_NotFound(t *testing.T) {
	svc := &mockAdminService{
		withdrawFn: func(ctx context.Context, id int64) error {
			return model.NewUserNotFoundError(id)
		},
	}
	h := NewAdminHandler(svc, &mockProfileVerifier{})

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/99", nil)
	req = withChiURLParam(req, "id", "99")
	w := httptest.NewRecorder()

	h.DeleteUser(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// TestAdminHandler_GetStats_Success は統計レスポンスのフィールドを検証する。
func TestAdminHandler_GetStats_Success(t *testing.T) {
	svc := &mockAdminService{
		getStatsFn: func(ctx context.Context) (*user.Stats, error) {
			return &user.Stats{
				TotalUsers:        10,
				InfluencerCount:   6,
				BrandCount:        3,
				MessageCount:      42,
				ConversationCount: 7,
				UnreadCount:       5,
			}, nil
		},
	}
	h := NewAdminHandler(svc, &mockProfileVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	w := httptest.NewRecorder()

	h.GetStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var result map[string]float64
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["totalUsers"] != 10 {
		t.Errorf("totalUsers = %v, want 10", result["totalUsers"])
	}
	if result["influencerCount"] != 6 {
		t.Errorf("influencerCount = %v, want 6", result["influencerCount"])
	}
	if result["unreadCount"] != 5 {
		t.Errorf("unreadCount = %v, want 5", result["unreadCount"])
	}
}
