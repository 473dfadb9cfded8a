package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/collabo/internal/metrics"
	"github.com/hitoshi/collabo/internal/middleware"
	"github.com/hitoshi/collabo/internal/model"
)

// MessageServiceInterface はメッセージハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	Send(ctx context.Context, senderID, recipientID int64, content string) (*model.Message, error)
	History(ctx context.Context, userID, counterpartID int64) ([]*model.Message, error)
	MarkRead(ctx context.Context, userID, counterpartID int64) (int64, error)
	Conversations(ctx context.Context, userID int64) ([]*model.ConversationSummary, error)
}

// MessageHandler はメッセージ関連のHTTPハンドラー。
type MessageHandler struct {
	service MessageServiceInterface
	metrics metrics.MetricsCollector
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface, collector metrics.MetricsCollector) *MessageHandler {
	return &MessageHandler{
		service: service,
		metrics: collector,
	}
}

// sendMessageRequest はメッセージ送信のリクエストボディ。
type sendMessageRequest struct {
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
}

// conversationResponse は会話一覧の1件分のレスポンス。
type conversationResponse struct {
	CounterpartID int64           `json:"counterpartId"`
	Counterpart   *userResponse   `json:"counterpart,omitempty"`
	LastMessage   messageResponse `json:"lastMessage"`
	UnreadCount   int             `json:"unreadCount"`
}

// markReadResponse は既読化レスポンス。changedは1件でも既読化されたかどうか。
type markReadResponse struct {
	Changed bool `json:"changed"`
}

// SendMessage はメッセージを送信する。
// POST /api/messages
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("body"))
		return
	}
	if req.RecipientID == 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("recipientId"))
		return
	}

	start := time.Now()
	created, err := h.service.Send(r.Context(), senderID, req.RecipientID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordMessageSent()
		h.metrics.RecordRequestLatency(time.Since(start))
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(created))
}

// GetHistory は相手との全メッセージを送信時刻の昇順で返す。
// 履歴を表示した時点で相手から自分宛の未読メッセージを既読にする。
// GET /api/messages/{userId}
func (h *MessageHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, counterpartID, ok := h.conversationParties(w, r)
	if !ok {
		return
	}

	messages, err := h.service.History(r.Context(), userID, counterpartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 履歴閲覧は相手からの未読を既読にする
	if _, err := h.service.MarkRead(r.Context(), userID, counterpartID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// MarkRead は相手から自分宛の未読メッセージを明示的に既読にする。
// POST /api/messages/{userId}/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, counterpartID, ok := h.conversationParties(w, r)
	if !ok {
		return
	}

	changed, err := h.service.MarkRead(r.Context(), userID, counterpartID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, markReadResponse{Changed: changed > 0})
}

// ListConversations は自分が参加する会話の一覧を最終メッセージの新しい順で返す。
// GET /api/conversations
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	conversations, err := h.service.Conversations(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]conversationResponse, 0, len(conversations))
	for _, c := range conversations {
		resp := conversationResponse{
			CounterpartID: c.CounterpartID,
			LastMessage:   toMessageResponse(&c.LastMessage),
			UnreadCount:   c.UnreadCount,
		}
		if c.Counterpart != nil {
			ur := toUserResponse(c.Counterpart)
			resp.Counterpart = &ur
		}
		responses = append(responses, resp)
	}

	writeJSON(w, http.StatusOK, responses)
}

// conversationParties は認証済みユーザーIDとURLパスの相手ユーザーIDを取得する。
// 取得できない場合はエラーレスポンスを書き込み、falseを返す。
func (h *MessageHandler) conversationParties(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return 0, 0, false
	}

	counterpartID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("userId"))
		return 0, 0, false
	}

	return userID, counterpartID, true
}
