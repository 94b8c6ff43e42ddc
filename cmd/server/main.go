package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	authapp "reward-server/internal/application/auth"
	leaderboardapp "reward-server/internal/application/leaderboard"
	ledgerapp "reward-server/internal/application/ledger"
	rewardapp "reward-server/internal/application/reward"
	"reward-server/internal/domain/service"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
	"reward-server/internal/infrastructure/persistence/mysql"
	"reward-server/internal/infrastructure/ratelimit"
	grpcserver "reward-server/internal/presentation/grpc"
	"reward-server/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meter, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meter.Shutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("reward-server")
	logger := otelinfra.NewLogger(tracer, otelinfra.WithLevel(otelinfra.ParseLogLevel(cfg.Log.Level)))
	metrics, err := otelinfra.NewMetrics("reward-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx := context.Background()

	// ティア表の読み込み
	table, err := config.LoadRewardTable(cfg.Reward.TierFile)
	if err != nil {
		log.Fatalf("Failed to load tier config: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := mysql.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info(ctx, "Database migrated", nil)
	}

	// レート制限の初期化
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = ratelimit.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}
	limiter, err := ratelimit.New(&cfg.RateLimit, redisClient)
	if err != nil {
		log.Fatalf("Failed to create rate limiter: %v", err)
	}

	// リポジトリの初期化
	walletRepo := mysql.NewWalletRepository(db)
	ledgerRepo := mysql.NewLedgerRepository(db)
	leaderboardRepo := mysql.NewLeaderboardRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// ドメインサービスの初期化
	ledgerService := service.NewLedgerService(walletRepo, ledgerRepo)
	capTracker := service.NewDailyCapTracker(walletRepo)

	// アプリケーションサービスの初期化
	services := rest.Services{
		Reward: rewardapp.NewRewardApplicationService(
			walletRepo,
			txManager,
			ledgerService,
			capTracker,
			limiter,
			table.Registry,
			table.Calculator,
			&cfg.RateLimit,
			&cfg.Reward,
			logger,
			metrics,
		),
		Ledger: ledgerapp.NewLedgerApplicationService(
			walletRepo,
			ledgerRepo,
			txManager,
			ledgerService,
			&cfg.Reward,
			logger,
			metrics,
		),
		Leaderboard: leaderboardapp.NewLeaderboardApplicationService(
			leaderboardRepo,
			&cfg.Leaderboard,
			logger,
			metrics,
		),
		Auth: authapp.NewAuthApplicationService(walletRepo, &cfg.JWT, logger),
	}

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, services, db, meter.Handler)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger, db)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	go grpcSrv.WatchHealth(healthCtx)

	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address":      address,
			"rate_limiter": cfg.RateLimit.Backend,
			"wallet_auth":  cfg.JWT.Secret != "",
			"admin_api":    cfg.AdminAPI.Enabled,
		})
		if err := router.Start(address); err != nil {
			logger.Info(ctx, "REST API server stopped", map[string]interface{}{
				"reason": err.Error(),
			})
		}
	}()

	go func() {
		logger.Info(ctx, "gRPC server starting", map[string]interface{}{
			"port": grpcSrv.Port(),
		})
		if err := grpcSrv.Start(); err != nil {
			logger.Error(ctx, "gRPC server error", err, nil)
		}
	}()

	// シグナルを待機
	<-quit
	logger.Info(ctx, "Shutting down servers", nil)
	stopHealth()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down REST API server", err, nil)
	}

	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(ctx, "Error shutting down gRPC server", err, nil)
	}

	logger.Info(ctx, "Servers stopped", nil)
}
