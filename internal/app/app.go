// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/collabo/internal/auth"
	"github.com/hitoshi/collabo/internal/config"
	"github.com/hitoshi/collabo/internal/database"
	"github.com/hitoshi/collabo/internal/handler"
	"github.com/hitoshi/collabo/internal/logger"
	"github.com/hitoshi/collabo/internal/message"
	"github.com/hitoshi/collabo/internal/metrics"
	"github.com/hitoshi/collabo/internal/middleware"
	"github.com/hitoshi/collabo/internal/profile"
	"github.com/hitoshi/collabo/internal/repository"
	"github.com/hitoshi/collabo/internal/security"
	"github.com/hitoshi/collabo/internal/showcase"
	"github.com/hitoshi/collabo/internal/user"
	"github.com/hitoshi/collabo/internal/worker/cleanup"
)

// repositories はストレージドライバに依らないリポジトリ一式。
type repositories struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	messages repository.MessageRepository
}

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストレージドライバに応じてリポジトリを構成し、全依存関係をワイヤリングして
// HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. リポジトリの初期化（ドライバ選択）
	var repos repositories
	var healthChecker handler.HealthChecker

	if cfg.StorageDriver == config.StoragePostgres {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		slog.Info("database connection established")

		repos = repositories{
			users:    repository.NewPostgresUserRepo(db),
			sessions: repository.NewPostgresSessionRepo(db),
			profiles: repository.NewPostgresProfileRepo(db),
			messages: repository.NewPostgresMessageRepo(db),
		}
		healthChecker = db
	} else {
		repos = repositories{
			users:    repository.NewMemoryUserRepository(),
			sessions: repository.NewMemorySessionRepository(),
			profiles: repository.NewMemoryProfileRepository(),
			messages: repository.NewMemoryMessageRepository(),
		}
	}

	// 2. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 3. ドメインサービスの初期化
	authService := auth.NewService(
		repos.users, repos.sessions,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	if cfg.AdminConfigured() {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := authService.EnsureAdmin(seedCtx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		seedCancel()
		if err != nil {
			return fmt.Errorf("failed to ensure admin user: %w", err)
		}
	}

	profileService := profile.NewService(repos.profiles, repos.users, sanitizer, ssrfGuard)
	messageService := message.NewService(repos.messages, repos.users, sanitizer)
	userService := user.NewService(repos.users, repos.profiles, repos.sessions, repos.messages)

	showcaseDetector := showcase.NewFeedDetector(ssrfGuard, cfg.ShowcaseTimeout, cfg.ShowcaseMaxSize)
	showcaseService := showcase.NewService(showcaseDetector, ssrfGuard, showcase.ServiceConfig{
		Timeout:  cfg.ShowcaseTimeout,
		MaxSize:  cfg.ShowcaseMaxSize,
		MaxItems: cfg.ShowcaseMaxItems,
	})

	// 4. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. レートリミッターの構成（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.MessageRate = rate.Limit(float64(cfg.RateLimitMessage) / 60.0)
	rateLimiterCfg.MessageBurst = cfg.RateLimitMessage
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		SessionFinder:     repos.sessions,
		UserFinder:        repos.users,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		ProfileService:  profileService,
		ProfileVerifier: profileService,
		ShowcaseFetcher: showcaseService,

		MessageService: messageService,
		UserService:    userService,

		Metrics:       collector,
		MetricsGather: registry,
		HealthChecker: healthChecker,
	}

	router := handler.NewRouter(deps)

	// 7. バックグラウンドジョブの起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupJob := cleanup.NewCleanupJob(repos.sessions, slog.Default())
	go cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
// Postgresドライバ以外ではエラーを返す。
func runMigrate(cfg *config.Config) error {
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("migrate command requires STORAGE_DRIVER=postgres")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
