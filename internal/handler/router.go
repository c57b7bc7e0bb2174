package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/rideshare/internal/metrics"
	"github.com/hitoshi/rideshare/internal/middleware"
	"github.com/hitoshi/rideshare/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	AccountService     AccountRegistrar
	ProfileUpdater     ProfileUpdater
	AuthService        AuthServiceInterface
	ProfileService     ProfileServiceInterface
	PostService        PostServiceInterface
	JoinRequestService JoinRequestServiceInterface

	// 可観測性
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	// ヘルスチェック
	HealthCheck func() error
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Auth → RateLimit(General)
//
// 登録・ログインルート（/auth/*）は認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	}

	// nilの*Collectorをそのままインターフェースに渡さない（型付きnilになる）
	var authMetrics authMetricsRecorder
	var tokenMetrics middleware.TokenFailureRecorder
	if deps.Metrics != nil {
		authMetrics = deps.Metrics
		tokenMetrics = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AccountService, deps.AuthService, authMetrics)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.ProfileUpdater)
	postHandler := NewPostHandler(deps.PostService)
	joinRequestHandler := NewJoinRequestHandler(deps.JoinRequestService)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthCheck))
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		// 登録は未認証のためIPベースの専用レート制限を適用する
		r.Group(func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.RegistrationMiddleware())
			}
			r.Post("/register/passenger", authHandler.RegisterPassenger)
			r.Post("/register/driver", authHandler.RegisterDriver)
		})

		r.Post("/login", authHandler.Login)
		r.Post("/google", authHandler.LoginWithGoogle)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier, tokenMetrics))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// プロフィール
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.GetProfile)
			r.Patch("/", profileHandler.UpdateProfile)
		})

		// 公開投稿の閲覧（種別を問わない）
		r.Get("/api/posts/upcoming", postHandler.ListUpcomingPosts)

		// 相乗り募集投稿（ドライバーのみ）
		r.Route("/api/posts/driver", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleDriver))

			r.Post("/", postHandler.CreateDriverPost)
			r.Get("/", postHandler.ListDriverPosts)

			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", postHandler.DeleteDriverPost)
				r.Get("/requests", joinRequestHandler.ListByPost)
			})
		})

		// 同乗希望投稿（乗客のみ）
		r.Route("/api/posts/passenger", func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RolePassenger))

			r.Post("/", postHandler.CreatePassengerPost)
			r.Get("/", postHandler.ListPassengerPosts)
		})

		// 参加リクエスト
		r.Route("/api/join-requests", func(r chi.Router) {
			// 作成と一覧は乗客のみ
			r.With(middleware.RequireRole(model.RolePassenger)).Post("/", joinRequestHandler.Create)
			r.With(middleware.RequireRole(model.RolePassenger)).Get("/", joinRequestHandler.List)

			// 状態遷移は投稿の所有ドライバーのみ（所有確認はサービス層）
			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleDriver))

				r.Post("/accept", joinRequestHandler.Accept)
				r.Post("/reject", joinRequestHandler.Reject)
			})
		})
	})

	return r
}

// healthHandler は稼働確認エンドポイントのハンドラーを返す。
// checkがnilでない場合は依存先の疎通も確認する。
func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
