package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/collabo/internal/metrics"
	"github.com/hitoshi/collabo/internal/middleware"
	"github.com/hitoshi/collabo/internal/model"
	"github.com/hitoshi/collabo/internal/showcase"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	GetByOwner(ctx context.Context, userID int64, kind model.ProfileKind) (*model.Profile, error)
	Create(ctx context.Context, user *model.User, profile *model.Profile) (*model.Profile, error)
	Update(ctx context.Context, user *model.User, kind model.ProfileKind, patch *model.ProfilePatch) (*model.Profile, error)
	List(ctx context.Context, kind model.ProfileKind) ([]*model.Profile, error)
	Search(ctx context.Context, kind model.ProfileKind, filter *model.ProfileFilter) ([]*model.Profile, error)
}

// UserGetter はユーザー取得に必要なインターフェース。
type UserGetter interface {
	Get(ctx context.Context, id int64) (*model.User, error)
}

// ShowcaseFetcher は最新コンテンツ取得に必要なインターフェース。
type ShowcaseFetcher interface {
	FetchForProfile(ctx context.Context, profile *model.Profile) []showcase.Item
}

// ProfileHandler はプロフィール関連のHTTPハンドラー。
type ProfileHandler struct {
	service   ProfileServiceInterface
	users     UserGetter
	showcases ShowcaseFetcher
	metrics   metrics.MetricsCollector
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, users UserGetter, showcases ShowcaseFetcher, collector metrics.MetricsCollector) *ProfileHandler {
	return &ProfileHandler{
		service:   service,
		users:     users,
		showcases: showcases,
		metrics:   collector,
	}
}

// profileRequest はプロフィール作成のリクエストボディ。
type profileRequest struct {
	Location       string   `json:"location"`
	Category       string   `json:"category"`
	Platforms      []string `json:"platforms"`
	FollowerCount  int      `json:"followerCount"`
	EngagementRate string   `json:"engagementRate"`
	Pricing        string   `json:"pricing"`
	ContentSamples []string `json:"contentSamples"`
	CompanyType    string   `json:"companyType"`
	Industry       string   `json:"industry"`
	MarketingGoals string   `json:"marketingGoals"`
	Budget         string   `json:"budget"`
}

// profilePatchRequest はプロフィール更新のリクエストボディ。
// 指定されたフィールドだけが更新される。
type profilePatchRequest struct {
	Location       *string   `json:"location"`
	Category       *string   `json:"category"`
	Platforms      *[]string `json:"platforms"`
	FollowerCount  *int      `json:"followerCount"`
	EngagementRate *string   `json:"engagementRate"`
	Pricing        *string   `json:"pricing"`
	ContentSamples *[]string `json:"contentSamples"`
	CompanyType    *string   `json:"companyType"`
	Industry       *string   `json:"industry"`
	MarketingGoals *string   `json:"marketingGoals"`
	Budget         *string   `json:"budget"`
}

// userProfilesResponse はユーザー詳細レスポンス。
// ユーザー情報、保有プロフィール、最新コンテンツ一覧を含む。
type userProfilesResponse struct {
	User       userResponse     `json:"user"`
	Influencer *profileResponse `json:"influencer,omitempty"`
	Brand      *profileResponse `json:"brand,omitempty"`
	Showcase   []showcase.Item  `json:"showcase"`
}

// CreateProfile はプロフィールを新規作成する。
// POST /api/profiles/{kindOrUserId}
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	kind := model.ProfileKind(chi.URLParam(r, "kindOrUserId"))
	if !kind.Valid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(string(kind)))
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("body"))
		return
	}

	created, err := h.service.Create(r.Context(), user, &model.Profile{
		Kind:           kind,
		Location:       req.Location,
		Category:       req.Category,
		Platforms:      req.Platforms,
		FollowerCount:  req.FollowerCount,
		EngagementRate: req.EngagementRate,
		Pricing:        req.Pricing,
		ContentSamples: req.ContentSamples,
		CompanyType:    req.CompanyType,
		Industry:       req.Industry,
		MarketingGoals: req.MarketingGoals,
		Budget:         req.Budget,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordProfileCreated(string(kind))
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(created))
}

// UpdateProfile は自分のプロフィールを部分更新する。
// PUT /api/profiles/{kindOrUserId}
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	kind := model.ProfileKind(chi.URLParam(r, "kindOrUserId"))
	if !kind.Valid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(string(kind)))
		return
	}

	var req profilePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("body"))
		return
	}

	updated, err := h.service.Update(r.Context(), user, kind, &model.ProfilePatch{
		Location:       req.Location,
		Category:       req.Category,
		Platforms:      req.Platforms,
		FollowerCount:  req.FollowerCount,
		EngagementRate: req.EngagementRate,
		Pricing:        req.Pricing,
		ContentSamples: req.ContentSamples,
		CompanyType:    req.CompanyType,
		Industry:       req.Industry,
		MarketingGoals: req.MarketingGoals,
		Budget:         req.Budget,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}

// GetUserProfiles は指定ユーザーのユーザー情報と保有プロフィールを返す。
// インフルエンサープロフィールを持つ場合はコンテンツサンプルの
// 最新コンテンツも含める（取得失敗時は空の一覧）。
// GET /api/profiles/{kindOrUserId}
func (h *ProfileHandler) GetUserProfiles(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "kindOrUserId"), 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldError("userId"))
		return
	}

	target, err := h.users.Get(r.Context(), targetID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := userProfilesResponse{
		User:     toUserResponse(target),
		Showcase: []showcase.Item{},
	}

	for _, kind := range []model.ProfileKind{model.KindInfluencer, model.KindBrand} {
		p, err := h.service.GetByOwner(r.Context(), targetID, kind)
		if err != nil {
			// プロフィール未作成は詳細表示を妨げない
			continue
		}
		pr := toProfileResponse(p)
		switch kind {
		case model.KindInfluencer:
			resp.Influencer = &pr
			if h.showcases != nil {
				resp.Showcase = h.showcases.FetchForProfile(r.Context(), p)
			}
		case model.KindBrand:
			resp.Brand = &pr
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListInfluencers はインフルエンサープロフィールの一覧を返す。
// category、location、platformsクエリで絞り込める。
// GET /api/discover/influencers
func (h *ProfileHandler) ListInfluencers(w http.ResponseWriter, r *http.Request) {
	h.discover(w, r, model.KindInfluencer)
}

// ListBrands はブランドプロフィールの一覧を返す。
// industry、location、budgetクエリで絞り込める。
// GET /api/discover/brands
func (h *ProfileHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	h.discover(w, r, model.KindBrand)
}

// SearchProfiles は指定種別のプロフィールをフィルタ条件で検索する。
// GET /api/discover/{kind}/search
func (h *ProfileHandler) SearchProfiles(w http.ResponseWriter, r *http.Request) {
	kind := model.ProfileKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRoleError(string(kind)))
		return
	}
	h.discover(w, r, kind)
}

// discover はクエリパラメータからフィルタを組み立てて検索を実行する。
// qはオーナー名・自己紹介・カテゴリ・業種へのフリーワード部分一致。
func (h *ProfileHandler) discover(w http.ResponseWriter, r *http.Request, kind model.ProfileKind) {
	filter := &model.ProfileFilter{
		Category: r.URL.Query().Get("category"),
		Industry: r.URL.Query().Get("industry"),
		Location: r.URL.Query().Get("location"),
		Budget:   r.URL.Query().Get("budget"),
		Query:    r.URL.Query().Get("q"),
	}
	if platforms := r.URL.Query().Get("platforms"); platforms != "" {
		for _, p := range strings.Split(platforms, ",") {
			if p = strings.TrimSpace(p); p != "" {
				filter.Platforms = append(filter.Platforms, p)
			}
		}
	}

	profiles, err := h.service.Search(r.Context(), kind, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordProfileSearch(string(kind))
	}
	writeJSON(w, http.StatusOK, toProfileResponses(profiles))
}

// currentUser はリクエストコンテキストから認証済みユーザーを取得する。
// 取得できない場合は401を書き込み、falseを返す。
func (h *ProfileHandler) currentUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil, false
	}
	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil, false
	}
	return user, true
}
