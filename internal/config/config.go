package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ストレージドライバの識別子。
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Storage
	StorageDriver string
	DatabaseURL   string

	// Session
	SessionMaxAge          int
	SessionCleanupInterval time.Duration

	// Showcase (コンテンツサンプルのフィード取得)
	ShowcaseTimeout  time.Duration
	ShowcaseMaxSize  int64
	ShowcaseMaxItems int

	// Rate Limit
	RateLimitGeneral int
	RateLimitMessage int

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Admin bootstrap。3つすべてが設定されたときのみ起動時に
	// 管理者ユーザーを作成する。
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// AdminConfigured は管理者ブートストラップが有効かを返す。
func (c *Config) AdminConfigured() bool {
	return c.AdminUsername != "" && c.AdminEmail != "" && c.AdminPassword != ""
}

// Load は環境変数からConfigを読み込む。
// STORAGE_DRIVERが"postgres"の場合のみDATABASE_URLが必須となる。
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string

	cfg.StorageDriver = getEnvString("STORAGE_DRIVER", StorageMemory)
	if cfg.StorageDriver != StorageMemory && cfg.StorageDriver != StoragePostgres {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER: %s (allowed: %s, %s)",
			cfg.StorageDriver, StorageMemory, StoragePostgres)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.StorageDriver == StoragePostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", 1*time.Hour)
	cfg.ShowcaseTimeout = getEnvDuration("SHOWCASE_TIMEOUT", 10*time.Second)
	cfg.ShowcaseMaxSize = getEnvInt64("SHOWCASE_MAX_SIZE", 5242880)
	cfg.ShowcaseMaxItems = getEnvInt("SHOWCASE_MAX_ITEMS", 5)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitMessage = getEnvInt("RATE_LIMIT_MESSAGE", 30)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	adminSet := 0
	for _, v := range []string{cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword} {
		if v != "" {
			adminSet++
		}
	}
	if adminSet > 0 && adminSet < 3 {
		return nil, fmt.Errorf("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
