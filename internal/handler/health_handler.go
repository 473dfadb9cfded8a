package handler

import (
	"net/http"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// Postgresドライバの場合はDB接続の疎通確認を行う。
type HealthChecker interface {
	Ping() error
}

// NewHealthHandler はヘルスチェックエンドポイントのハンドラーを返す。
// checkerがnilの場合（メモリドライバ）はプロセス生存のみを確認する。
// GET /health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	}
}
