package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/user"
)

// AdminServiceInterface は管理者ハンドラーが必要とするユーザー管理サービス。
type AdminServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, id int64, patch *model.UserPatch) (*model.User, error)
	Withdraw(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (*user.Stats, error)
}

// ProfileVerifier はプロフィールの認証済みフラグ設定に必要なインターフェース。
type ProfileVerifier interface {
	SetVerified(ctx context.Context, profileID int64, verified bool) (*model.Profile, error)
}

// AdminHandler は管理者専用のHTTPハンドラー。
type AdminHandler struct {
	users    AdminServiceInterface
	verifier ProfileVerifier
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(users AdminServiceInterface, verifier ProfileVerifier) *AdminHandler {
	return &AdminHandler{
		users:    users,
		verifier: verifier,
	}
}

// adminUpdateUserRequest はユーザー更新のリクエストボディ。
// ユーザー属性の部分更新に加えて、プロフィールの認証済みフラグを変更できる。
type adminUpdateUserRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`

	ProfileID *int64 `json:"profileId"`
	Verified  *bool  `json:"verified"`
}

// statsResponse は統計レスポンス。
type statsResponse struct {
	TotalUsers        int64 `json:"totalUsers"`
	InfluencerCount   int64 `json:"influencerCount"`
	BrandCount        int64 `json:"brandCount"`
	MessageCount      int64 `json:"messageCount"`
	ConversationCount int64 `json:"conversationCount"`
	UnreadCount       int64 `json:"unreadCount"`
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, responses)
}

// UpdateUser はユーザー属性の部分更新とプロフィール認証フラグの変更を行う。
// PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("id"))
		return
	}

	var req adminUpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("body"))
		return
	}

	// 認証済みフラグの変更が指定されている場合はプロフィール側を更新
	if req.ProfileID != nil && req.Verified != nil {
		if _, err := h.verifier.SetVerified(r.Context(), *req.ProfileID, *req.Verified); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	updated, err := h.users.Update(r.Context(), id, &model.UserPatch{
		Email: req.Email,
		Name:  req.Name,
		Bio:   req.Bio,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// DeleteUser は指定ユーザーを退会させる。
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("id"))
		return
	}

	if err := h.users.Withdraw(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStats はマーケットプレイス全体の統計を返す。
// GET /api/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.users.GetStats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalUsers:        stats.TotalUsers,
		InfluencerCount:   stats.InfluencerCount,
		BrandCount:        stats.BrandCount,
		MessageCount:      stats.MessageCount,
		ConversationCount: stats.ConversationCount,
		UnreadCount:       stats.UnreadCount,
	})
}
