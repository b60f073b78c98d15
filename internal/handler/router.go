package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jobtrack/internal/metrics"
	"github.com/hitoshi/jobtrack/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Metrics  middleware.HTTPMetricsRecorder
	Gatherer prometheus.Gatherer

	// サービス
	AuthService AuthServiceInterface
	JobService  JobServiceInterface

	// 画面・ヘルスチェック
	HealthChecker HealthChecker
	Assets        fs.FS
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → CORS → SecurityHeaders → Recovery → Logging → Metrics
//
// 認証が必要なAPIグループにはさらに Auth → RateLimit を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	authHandler := NewAuthHandler(deps.AuthService)
	jobHandler := NewJobHandler(deps.JobService)
	healthHandler := NewHealthHandler(deps.HealthChecker)
	pageHandler := NewPageHandler(deps.Assets)

	// --- 認証不要のルート ---

	r.Get("/", pageHandler.Login)
	r.Get("/home", pageHandler.Home)
	r.Handle("/static/*", pageHandler.Static())

	r.Get("/health", healthHandler.Health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}

		r.Post("/api/logout", authHandler.Logout)
		r.Get("/api/me", authHandler.Me)

		// 応募記録管理
		r.Route("/api/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.ListJobs)
			r.Post("/", jobHandler.AddJob)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", jobHandler.UpdateJob)
				r.Delete("/", jobHandler.DeleteJob)
			})
		})

		r.Delete("/api/cleanup", jobHandler.Cleanup)
	})

	return r
}
