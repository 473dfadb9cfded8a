package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/collabo/internal/metrics"
	"github.com/hitoshi/collabo/internal/middleware"
	"github.com/hitoshi/collabo/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	UserFinder        middleware.UserFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// プロフィール
	ProfileService  ProfileServiceInterface
	ProfileVerifier ProfileVerifier
	ShowcaseFetcher ShowcaseFetcher

	// メッセージ
	MessageService MessageServiceInterface

	// ユーザー管理
	UserService AdminServiceInterface

	// 監視
	Metrics       metrics.MetricsCollector
	MetricsGather prometheus.Gatherer
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CORS → CSRF
//	→（認証グループ）Session → RateLimit(General)
//
// 認証ルート（/auth/*）、/health、/metricsはセッション検証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	profileHandler := NewProfileHandler(deps.ProfileService, userGetterAdapter{deps.UserFinder}, deps.ShowcaseFetcher, deps.Metrics)
	messageHandler := NewMessageHandler(deps.MessageService, deps.Metrics)
	adminHandler := NewAdminHandler(deps.UserService, deps.ProfileVerifier)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGather != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGather))
	}
	r.Handle("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール管理
		// パスパラメータはPOST/PUTでは種別（influencer/brand）、
		// GETでは対象ユーザーIDとして解釈される
		r.Route("/api/profiles/{kindOrUserId}", func(r chi.Router) {
			r.Post("/", profileHandler.CreateProfile)
			r.Put("/", profileHandler.UpdateProfile)
			r.Get("/", profileHandler.GetUserProfiles)
		})

		// ディレクトリ検索
		r.Route("/api/discover", func(r chi.Router) {
			r.Get("/influencers", profileHandler.ListInfluencers)
			r.Get("/brands", profileHandler.ListBrands)
			r.Get("/{kind}/search", profileHandler.SearchProfiles)
		})

		// メッセージ
		r.Route("/api/messages", func(r chi.Router) {
			// POST /api/messages - 送信（送信専用レート制限を追加）
			r.With(deps.RateLimiter.MessageSendMiddleware()).Post("/", messageHandler.SendMessage)

			r.Route("/{userId}", func(r chi.Router) {
				r.Get("/", messageHandler.GetHistory)
				r.Post("/read", messageHandler.MarkRead)
			})
		})
		r.Get("/api/conversations", messageHandler.ListConversations)

		// 退会
		r.Delete("/api/users/me", userHandler.Withdraw)

		// 管理者専用
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.NewRequireRoleMiddleware(deps.UserFinder, model.RoleAdmin))

			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Get("/stats", adminHandler.GetStats)
		})
	})

	return r
}

// userGetterAdapter はmiddleware.UserFinderをUserGetterに適合させる。
// プロフィールハンドラーは存在しないユーザーをエラーとして扱う。
type userGetterAdapter struct {
	finder middleware.UserFinder
}

func (a userGetterAdapter) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := a.finder.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}
