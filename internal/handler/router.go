package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/todoapi/internal/metrics"
	"github.com/hitoshi/todoapi/internal/middleware"
	"github.com/hitoshi/todoapi/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	CORSAllowedOrigins []string
	GeneralLimiter     *middleware.RateLimiter
	AuthLimiter        *middleware.RateLimiter
	TokenVerifier      middleware.TokenVerifier
	AccountFinder      middleware.AccountFinder

	// メトリクス
	Metrics         *metrics.Collector
	MetricsGatherer prometheus.Gatherer

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// タスク
	TaskService TaskServiceInterface

	// ヘルスチェック・ドキュメント
	DB   Pinger
	Docs *DocsHandler
}

// Interceptors は全ルートに適用するミドルウェアを実行順に返す。
//
//	RequestID → RealIP → Logging → Recovery → Metrics → SecurityHeaders → CORS → RateLimit(general)
//
// RecoveryはLoggingの内側に置き、パニック時の500もアクセスログに残す。
func Interceptors(deps *RouterDeps) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		middleware.NewLoggingMiddleware(deps.Logger),
		middleware.NewRecoveryMiddleware(),
		deps.Metrics.Middleware(),
		middleware.NewSecurityHeadersMiddleware(),
		middleware.NewCORSMiddleware(deps.CORSAllowedOrigins),
		deps.GeneralLimiter.Middleware(),
	}
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// /auth/* には認証専用のレート制限を、/api/* にはBearerトークンの認証ゲートを追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(Interceptors(deps)...)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, model.NewMethodNotAllowedError(r.Method))
	})

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Metrics)
	taskHandler := NewTaskHandler(deps.TaskService, deps.Metrics)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 認証不要のルート ---
	r.Get("/", healthHandler.Welcome)
	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))

	if deps.Docs != nil {
		r.Get("/api-docs", deps.Docs.Index)
		r.Get("/api-docs/openapi.yaml", deps.Docs.YAML)
		r.Get("/api-docs/openapi.json", deps.Docs.JSON)
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Use(deps.AuthLimiter.Middleware())
		r.Get("/google", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
	})

	// --- 認証が必要なルート ---
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, deps.AccountFinder, deps.Metrics.RecordAuthRejection))

		r.Get("/me", authHandler.Me)

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Get("/stats", taskHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Patch("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)
			})
		})
	})

	return r
}
