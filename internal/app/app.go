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

	"github.com/hitoshi/rideshare/internal/account"
	"github.com/hitoshi/rideshare/internal/auth"
	"github.com/hitoshi/rideshare/internal/avatar"
	"github.com/hitoshi/rideshare/internal/config"
	"github.com/hitoshi/rideshare/internal/database"
	"github.com/hitoshi/rideshare/internal/handler"
	"github.com/hitoshi/rideshare/internal/joinrequest"
	"github.com/hitoshi/rideshare/internal/logger"
	"github.com/hitoshi/rideshare/internal/metrics"
	"github.com/hitoshi/rideshare/internal/middleware"
	"github.com/hitoshi/rideshare/internal/post"
	"github.com/hitoshi/rideshare/internal/profile"
	"github.com/hitoshi/rideshare/internal/repository"
	"github.com/hitoshi/rideshare/internal/security"
	"github.com/hitoshi/rideshare/internal/worker/cleanup"
)

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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandCleanup:
		return runCleanup(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// 孤立参加リクエストのクリーンアップジョブも定期実行でバックグラウンド起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	identRepo := repository.NewPostgresIdentityRepo(db)
	driverPostRepo := repository.NewPostgresDriverPostRepo(db)
	passengerPostRepo := repository.NewPostgresPassengerPostRepo(db)
	joinRequestRepo := repository.NewPostgresJoinRequestRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewNotesSanitizer()

	// 5. 認証部品の初期化
	hasher := auth.NewPasswordHasher()
	tokenIssuer := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.AccessTokenTTL)
	googleVerifier := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
		ClientID: cfg.GoogleClientID,
	})
	avatarFetcher := avatar.NewFetcher(ssrfGuard, cfg.AvatarFetchTimeout, cfg.AvatarMaxSize)

	// 6. ドメインサービスの初期化
	accountService := account.NewService(identRepo, hasher)
	authService := auth.NewService(identRepo, hasher, tokenIssuer, googleVerifier, avatarFetcher)
	postService := post.NewService(driverPostRepo, passengerPostRepo, sanitizer)
	joinRequestService := joinrequest.NewService(joinRequestRepo, driverPostRepo, collector)
	profileService := profile.NewService(
		identRepo, driverPostRepo, passengerPostRepo,
		joinRequestService, avatar.NewURLResolver(),
	)

	// 7. レート制限の構成（configのRate値はreq/min単位なのでreq/secに変換する）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.RegisterRate = rate.Limit(float64(cfg.RateLimitRegister) / 60.0)
	rateLimiterCfg.RegisterBurst = cfg.RateLimitRegister
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 8. ルーターの構築
	deps := &handler.RouterDeps{
		TokenVerifier:     tokenIssuer,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AccountService:     accountService,
		ProfileUpdater:     accountService,
		AuthService:        authService,
		ProfileService:     profileService,
		PostService:        postService,
		JoinRequestService: joinRequestService,

		Metrics:  collector,
		Gatherer: registry,

		HealthCheck: db.Ping,
	}

	router := handler.NewRouter(deps)

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// クリーンアップジョブを定期実行でバックグラウンド起動
	cleanupJob := cleanup.NewCleanupJob(db, slog.Default(), collector)
	go runCleanupLoop(ctx, cleanupJob, cfg.CleanupInterval)

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
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runCleanupLoop はクリーンアップジョブを起動直後に1回、以降interval間隔で実行する。
// ジョブの失敗はログに記録するのみで、ループ自体は継続する。
func runCleanupLoop(ctx context.Context, job *cleanup.CleanupJob, interval time.Duration) {
	if err := job.Run(ctx); err != nil {
		slog.Error("cleanup job failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				slog.Error("cleanup job failed", slog.String("error", err.Error()))
			}
		}
	}
}

// runCleanup は孤立参加リクエストのクリーンアップを1回だけ実行する。
// 常駐サーバーとは独立して手動実行・cron実行できるようにするためのモード。
func runCleanup(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (cleanup)")

	job := cleanup.NewCleanupJob(db, slog.Default(), nil)
	if err := job.Run(context.Background()); err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
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
