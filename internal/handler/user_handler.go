package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/collabo/internal/middleware"
	"github.com/hitoshi/collabo/internal/model"
)

// UserWithdrawer は退会処理に必要なインターフェース。
type UserWithdrawer interface {
	Withdraw(ctx context.Context, id int64) error
}

// UserHandler はユーザー自身の操作に関するHTTPハンドラー。
type UserHandler struct {
	service UserWithdrawer
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserWithdrawer) *UserHandler {
	return &UserHandler{service: service}
}

// Withdraw は自分自身のアカウントを退会する。
// プロフィールとセッションも削除される。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("user withdrew own account", slog.Int64("user_id", userID))

	// セッションCookieをクリア
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
