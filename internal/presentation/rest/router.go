package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authapp "reward-server/internal/application/auth"
	leaderboardapp "reward-server/internal/application/leaderboard"
	ledgerapp "reward-server/internal/application/ledger"
	rewardapp "reward-server/internal/application/reward"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
	"reward-server/internal/presentation/rest/handler"
	restmiddleware "reward-server/internal/presentation/rest/middleware"
)

const healthCheckTimeout = 2 * time.Second

// HealthChecker ヘルスチェック対象（DB接続など）
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services ルーターが利用するアプリケーションサービス
type Services struct {
	Reward      *rewardapp.RewardApplicationService
	Ledger      *ledgerapp.LedgerApplicationService
	Leaderboard *leaderboardapp.LeaderboardApplicationService
	Auth        *authapp.AuthApplicationService
}

// Router REST APIルーター
type Router struct {
	echo               *echo.Echo
	rewardHandler      *handler.RewardHandler
	leaderboardHandler *handler.LeaderboardHandler
	ledgerHandler      *handler.LedgerHandler
	adminHandler       *handler.AdminHandler
}

// NewRouter 新しいRouterを作成
// metricsHandler が nil の場合 /metrics は登録しない
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services Services,
	health HealthChecker,
	metricsHandler http.Handler,
) (*Router, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Echoのデフォルトエラーハンドラーを無効化（エラーハンドリングミドルウェアで処理）
	e.HTTPErrorHandler = func(err error, c echo.Context) {}

	setupMiddleware(e, logger, metrics)

	rewardHandler := handler.NewRewardHandler(services.Reward)
	leaderboardHandler := handler.NewLeaderboardHandler(services.Leaderboard)
	ledgerHandler := handler.NewLedgerHandler(services.Ledger)
	adminHandler := handler.NewAdminHandler(services.Ledger, services.Auth)

	r := &Router{
		echo:               e,
		rewardHandler:      rewardHandler,
		leaderboardHandler: leaderboardHandler,
		ledgerHandler:      ledgerHandler,
		adminHandler:       adminHandler,
	}
	r.setupRoutes(cfg, logger, health, metricsHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
		},
		ExposeHeaders: []string{"Retry-After", echo.HeaderXRequestID},
	}))

	e.Use(middleware.RequestID())
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.TracingMiddleware())

	// ステータスはエラーハンドリング後に確定するため外側に置く
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func (r *Router) setupRoutes(cfg *config.Config, logger *otelinfra.Logger, health HealthChecker, metricsHandler http.Handler) {
	api := r.echo.Group("/api")

	// 公開エンドポイント
	api.GET("/tiers", r.rewardHandler.ListTiers)
	api.GET("/leaderboard/:category", r.leaderboardHandler.GetLeaderboard)
	api.GET("/leaderboard/user/:wallet/:category", r.leaderboardHandler.GetUserRank)

	// ウォレット単位のエンドポイント（JWT_SECRET 設定時のみ認証）
	wallet := api.Group("", restmiddleware.WalletAuthMiddleware(&cfg.JWT, logger))
	wallet.POST("/faucet/steps/:wallet", r.rewardHandler.ClaimSteps)
	wallet.POST("/games/result/:wallet", r.rewardHandler.SubmitGameResult)
	wallet.GET("/wallets/:wallet/ledger", r.ledgerHandler.GetHistory)
	wallet.POST("/zpts/convert/:wallet", r.ledgerHandler.ConvertPoints)

	// 管理API
	admin := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	admin.POST("/adjustments", r.adminHandler.Adjust)
	admin.GET("/wallets/:wallet/reconcile", r.adminHandler.Reconcile)
	admin.POST("/tokens", r.adminHandler.IssueToken)

	r.echo.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		defer cancel()

		if err := health.HealthCheck(ctx); err != nil {
			logger.Warn(ctx, "Health check failed", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if metricsHandler != nil {
		r.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
	}
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown 処理中のリクエストを待ってからサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
