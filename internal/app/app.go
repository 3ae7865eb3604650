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

	"github.com/BotleApps/StandBy-Screen/internal/config"
	"github.com/BotleApps/StandBy-Screen/internal/display"
	"github.com/BotleApps/StandBy-Screen/internal/feedimport"
	"github.com/BotleApps/StandBy-Screen/internal/handler"
	"github.com/BotleApps/StandBy-Screen/internal/logger"
	"github.com/BotleApps/StandBy-Screen/internal/metrics"
	"github.com/BotleApps/StandBy-Screen/internal/middleware"
	"github.com/BotleApps/StandBy-Screen/internal/repository"
	"github.com/BotleApps/StandBy-Screen/internal/screen"
	"github.com/BotleApps/StandBy-Screen/internal/security"
	"github.com/BotleApps/StandBy-Screen/internal/store"
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
		slog.String("store_path", cfg.StorePath),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandClear:
		return runClear(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 2. ストアを開く
	screenStore, err := store.OpenBolt(cfg.StorePath, slog.Default(), collector)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer screenStore.Close()

	slog.Info("store opened", slog.String("path", cfg.StorePath))

	// 3. リポジトリの初期化
	screenRepo := repository.NewStoreScreenRepo(screenStore, slog.Default())

	// 4. セキュリティサービスの初期化
	sanitizer := security.NewContentSanitizer()
	imageGuard := security.NewImageURLGuard()

	// 5. ドメインサービスの初期化
	importer := feedimport.NewImporter(imageGuard, slog.Default(), cfg.FeedTimeout)
	screenService := screen.NewService(
		screenRepo, sanitizer, imageGuard, importer,
		slog.Default(), collector, cfg.FeedMaxItems,
	)

	// 6. 表示セッションハブの初期化
	hub := display.NewHub(cfg.CarouselInterval, slog.Default(), collector)

	// 7. ルーターの構築
	// configのレート値はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.ImportRate = rate.Limit(float64(cfg.RateLimitImport) / 60.0)
	rateLimiterCfg.ImportBurst = cfg.RateLimitImport
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),

		ScreenService: screenService,
		DisplayHub:    hub,

		Store:          screenStore,
		MetricsHandler: metrics.Handler(registry),
		StatusRecorder: collector,
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// SSEストリームを切らないためWriteTimeoutは設定しない
		IdleTimeout: 60 * time.Second,
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

	// SSE接続が残っているとShutdownが完了しないため、先に全セッションを閉じる
	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runClear は保存済み画面コレクションを全消去する。
// 検証環境でのデータリセット用サブコマンド。
func runClear(cfg *config.Config) error {
	screenStore, err := store.OpenBolt(cfg.StorePath, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer screenStore.Close()

	if err := screenStore.Clear(); err != nil {
		return fmt.Errorf("failed to clear store: %w", err)
	}

	slog.Info("store cleared", slog.String("path", cfg.StorePath))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
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
