package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	authapp "reward-server/internal/application/auth"
	leaderboardapp "reward-server/internal/application/leaderboard"
	ledgerapp "reward-server/internal/application/ledger"
	rewardapp "reward-server/internal/application/reward"
	"reward-server/internal/domain/reward"
	"reward-server/internal/domain/service"
	"reward-server/internal/domain/tier"
	"reward-server/internal/domain/wallet"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
	restmiddleware "reward-server/internal/presentation/rest/middleware"
)

const testWalletID = "0xabc0001"

type testDeps struct {
	wallets *MockWalletRepository
	ledger  *MockLedgerRepository
	ranking *MockRankingRepository
	limiter *MockLimiter
}

func newTestDeps() *testDeps {
	return &testDeps{
		wallets: new(MockWalletRepository),
		ledger:  new(MockLedgerRepository),
		ranking: new(MockRankingRepository),
		limiter: new(MockLimiter),
	}
}

func (d *testDeps) assertExpectations(t *testing.T) {
	d.wallets.AssertExpectations(t)
	d.ledger.AssertExpectations(t)
	d.ranking.AssertExpectations(t)
	d.limiter.AssertExpectations(t)
}

// newTestEcho 実際のアプリケーションサービスとモックリポジトリでルーティングを組み立てる
func newTestEcho(t *testing.T, d *testDeps) *echo.Echo {
	t.Helper()

	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"), otelinfra.WithWriter(io.Discard))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	calc := reward.MustNewCalculator(reward.DefaultStepBands(), reward.DefaultGameRules())
	registry, err := tier.NewRegistry([]tier.Config{
		{
			Name:             tier.NameStarter,
			Multiplier:       decimal.NewFromInt(1),
			DailyPointsCap:   75,
			DailyCurrencyCap: decimal.NewFromInt(300),
			Games:            []string{"zbrickles", "ztrivia"},
		},
		{
			Name:             tier.NamePlus,
			Multiplier:       decimal.RequireFromString("1.5"),
			DailyPointsCap:   150,
			DailyCurrencyCap: decimal.NewFromInt(600),
			Games:            []string{"zbrickles", "ztrivia", "ztetris", "zslots"},
		},
	}, calc.Games())
	require.NoError(t, err)

	rewardCfg := &config.RewardConfig{PointsPerCurrency: 1000}
	ledgerService := service.NewLedgerService(d.wallets, d.ledger)

	rewardService := rewardapp.NewRewardApplicationService(
		d.wallets,
		&MockTransactionManager{},
		ledgerService,
		service.NewDailyCapTracker(d.wallets),
		d.limiter,
		registry,
		calc,
		&config.RateLimitConfig{StepCooldown: 5 * time.Minute, GameCooldown: 20 * time.Second},
		rewardCfg,
		logger,
		metrics,
	)
	ledgerAppService := ledgerapp.NewLedgerApplicationService(
		d.wallets,
		d.ledger,
		&MockTransactionManager{},
		ledgerService,
		rewardCfg,
		logger,
		metrics,
	)
	leaderboardService := leaderboardapp.NewLeaderboardApplicationService(
		d.ranking,
		&config.LeaderboardConfig{UsernameSalt: "ZWAP", DefaultLimit: 50, MaxLimit: 100, MaxNeighbors: 10},
		logger,
		metrics,
	)
	authService := authapp.NewAuthApplicationService(
		d.wallets,
		&config.JWTConfig{Secret: "test-secret", Issuer: "reward-server", Expiration: time.Hour},
		logger,
	)

	rewardHandler := NewRewardHandler(rewardService)
	leaderboardHandler := NewLeaderboardHandler(leaderboardService)
	ledgerHandler := NewLedgerHandler(ledgerAppService)
	adminHandler := NewAdminHandler(ledgerAppService, authService)

	e := echo.New()
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))

	api := e.Group("/api")
	api.POST("/faucet/steps/:wallet", rewardHandler.ClaimSteps)
	api.POST("/games/result/:wallet", rewardHandler.SubmitGameResult)
	api.GET("/tiers", rewardHandler.ListTiers)
	api.GET("/leaderboard/:category", leaderboardHandler.GetLeaderboard)
	api.GET("/leaderboard/user/:wallet/:category", leaderboardHandler.GetUserRank)
	api.GET("/wallets/:wallet/ledger", ledgerHandler.GetHistory)
	api.POST("/zpts/convert/:wallet", ledgerHandler.ConvertPoints)
	api.POST("/admin/adjustments", adminHandler.Adjust)
	api.GET("/admin/wallets/:wallet/reconcile", adminHandler.Reconcile)
	api.POST("/admin/tokens", adminHandler.IssueToken)

	return e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// newWallet 当日リセット済みのテスト用ウォレット
func newWallet(tierName tier.Name, currency string, points int64, dailyCurrency string, dailyPoints int64) *wallet.Wallet {
	return wallet.MustNewWallet(
		testWalletID,
		tierName,
		nil,
		wallet.Balances{Currency: decimal.RequireFromString(currency), Points: points},
		wallet.Totals{CurrencyEarned: decimal.Zero},
		wallet.NewDailyCounter(dailyPoints, decimal.RequireFromString(dailyCurrency), wallet.UTCDate(time.Now())),
	)
}
