package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BotleApps/StandBy-Screen/internal/middleware"
)

// Pinger はヘルスチェックでストアの疎通を確認するためのインターフェース。
type Pinger interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// スクリーン管理
	ScreenService ScreenServiceInterface

	// ライブ表示
	DisplayHub DisplayHubInterface

	// 運用
	Store          Pinger
	MetricsHandler http.Handler
	StatusRecorder middleware.HTTPStatusRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → SecurityHeadersMiddleware → HTTPMetricsMiddleware → LoggingMiddleware → RecoveryMiddleware → RateLimitMiddleware(General)
//
// 運用ルート（/healthz、/metrics）はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルートに効くミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewHTTPMetricsMiddleware(deps.StatusRecorder))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	screenHandler := NewScreenHandler(deps.ScreenService)
	displayHandler := NewDisplayHandler(deps.ScreenService, deps.DisplayHub)

	// --- 運用ルート ---

	r.Get("/healthz", newHealthzHandler(deps.Store))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/screens", func(r chi.Router) {
			r.Get("/", screenHandler.ListScreens)
			r.Post("/", screenHandler.CreateScreen)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", screenHandler.GetScreen)
				r.Put("/", screenHandler.UpdateScreen)
				r.Delete("/", screenHandler.DeleteScreen)

				// POST /api/screens/{id}/news/import - ニュース取り込み（専用レート制限を追加）
				r.With(deps.RateLimiter.ImportMiddleware()).Post("/news/import", screenHandler.ImportNews)

				// ライブ表示
				r.Route("/display", func(r chi.Router) {
					r.Get("/", displayHandler.Stream)
					r.Post("/reset", displayHandler.ResetCountdown)
					r.Post("/pause", displayHandler.PauseCarousel)
					r.Post("/resume", displayHandler.ResumeCarousel)
				})
			})
		})
	})

	return r
}

// healthzResponse はヘルスチェックのレスポンス。
type healthzResponse struct {
	Status string `json:"status"`
}

// newHealthzHandler はストアの疎通を確認するヘルスチェックハンドラーを返す。
func newHealthzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if store != nil {
			if err := store.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(healthzResponse{Status: "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(healthzResponse{Status: "ok"})
	}
}
