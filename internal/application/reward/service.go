package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/ledger"
	"reward-server/internal/domain/ratelimit"
	"reward-server/internal/domain/reward"
	"reward-server/internal/domain/service"
	"reward-server/internal/domain/tier"
	"reward-server/internal/domain/transaction"
	"reward-server/internal/domain/wallet"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

// 日次上限で減額された場合に台帳へ残す理由
const capReachedReason = "daily cap reached"

// RewardApplicationService 活動報酬アプリケーションサービス
type RewardApplicationService struct {
	walletRepo    wallet.WalletRepository
	txManager     transaction.TransactionManager
	ledgerService *service.LedgerService
	capTracker    *service.DailyCapTracker
	limiter       ratelimit.Limiter
	registry      *tier.Registry
	calculator    *reward.Calculator
	rateLimit     *config.RateLimitConfig
	rewardConfig  *config.RewardConfig
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
	now           func() time.Time
}

// NewRewardApplicationService 新しいRewardApplicationServiceを作成
func NewRewardApplicationService(
	walletRepo wallet.WalletRepository,
	txManager transaction.TransactionManager,
	ledgerService *service.LedgerService,
	capTracker *service.DailyCapTracker,
	limiter ratelimit.Limiter,
	registry *tier.Registry,
	calculator *reward.Calculator,
	rateLimit *config.RateLimitConfig,
	rewardConfig *config.RewardConfig,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *RewardApplicationService {
	return &RewardApplicationService{
		walletRepo:    walletRepo,
		txManager:     txManager,
		ledgerService: ledgerService,
		capTracker:    capTracker,
		limiter:       limiter,
		registry:      registry,
		calculator:    calculator,
		rateLimit:     rateLimit,
		rewardConfig:  rewardConfig,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("reward-service"),
		now:           time.Now,
	}
}

// ClaimSteps 歩数を申告して通貨を付与
func (s *RewardApplicationService) ClaimSteps(ctx context.Context, req *ClaimStepsRequest) (*ClaimStepsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.ClaimSteps")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", req.WalletID),
		attribute.Int64("steps", req.Steps),
	)

	s.logger.Info(ctx, "Claiming step reward", map[string]interface{}{
		"wallet_id": req.WalletID,
		"steps":     req.Steps,
	})

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}
	if err := reward.ValidateSteps(req.Steps); err != nil {
		return nil, s.fail(ctx, span, "Invalid step count", err, walletID)
	}

	w, tierCfg, err := s.loadWallet(ctx, walletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to load wallet", err, walletID)
	}
	span.SetAttributes(attribute.String("tier", w.Tier().String()))

	if err := s.checkCooldown(ctx, walletID, ratelimit.ActionStepClaim, s.rateLimit.StepCooldown); err != nil {
		return nil, s.fail(ctx, span, "Step claim rejected by cooldown", err, walletID)
	}

	var result *ClaimStepsResponse
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		locked, err := s.walletRepo.FindByIDForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if _, err := s.capTracker.Reconcile(ctx, locked, now); err != nil {
			return err
		}

		daily := locked.Daily()
		proposed := s.calculator.StepReward(req.Steps, tierCfg.Multiplier)
		awarded := service.ClampCurrency(proposed, daily.CurrencyEarnedToday(), tierCfg.DailyCurrencyCap)
		capped := awarded.LessThan(proposed)

		if capped && awarded.IsZero() && s.rewardConfig.RejectWhenCapExhausted {
			return reward.ErrDailyCapExhausted
		}

		var reason *string
		if capped {
			r := capReachedReason
			reason = &r
		}

		entry, err := s.ledgerService.Apply(ctx, locked, service.Posting{
			Currency: awarded,
			Source:   ledger.SourceWalking,
			Status:   ledger.StatusEarned,
			Reason:   reason,
			Steps:    req.Steps,
			At:       now,
		})
		if err != nil {
			return err
		}

		result = &ClaimStepsResponse{
			WalletID:               walletID,
			StepsCounted:           req.Steps,
			RewardsEarned:          awarded,
			Capped:                 capped,
			NewBalance:             locked.Balances().Currency,
			DailyCurrencyRemaining: locked.Daily().RemainingCurrency(tierCfg.DailyCurrencyCap),
			EntryID:                entry.EntryID(),
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to claim step reward", err, walletID)
	}

	s.metrics.RecordReward(ctx, ledger.SourceWalking.String(), tierCfg.Name.String(), result.RewardsEarned.InexactFloat64(), 0)
	s.metrics.RecordLedgerEntry(ctx, ledger.SourceWalking.String(), ledger.StatusEarned.String())
	if result.Capped {
		s.metrics.RecordDailyCapHit(ctx, "zwap")
	}

	span.SetAttributes(
		attribute.String("rewards_earned", result.RewardsEarned.StringFixed(reward.CurrencyPlaces)),
		attribute.Bool("capped", result.Capped),
	)
	s.logger.Info(ctx, "Step reward claimed", map[string]interface{}{
		"wallet_id":      walletID,
		"steps":          req.Steps,
		"rewards_earned": result.RewardsEarned.StringFixed(reward.CurrencyPlaces),
		"capped":         result.Capped,
		"entry_id":       result.EntryID,
	})

	return result, nil
}

// SubmitGameResult ゲーム結果を送信して通貨とポイントを付与
func (s *RewardApplicationService) SubmitGameResult(ctx context.Context, req *SubmitGameResultRequest) (*SubmitGameResultResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RewardApplicationService.SubmitGameResult")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", req.WalletID),
		attribute.String("game_type", req.GameType),
		attribute.Int64("score", req.Score),
		attribute.Int64("level", req.Level),
	)

	s.logger.Info(ctx, "Submitting game result", map[string]interface{}{
		"wallet_id":        req.WalletID,
		"game_type":        req.GameType,
		"score":            req.Score,
		"level":            req.Level,
		"blocks_destroyed": req.BlocksDestroyed,
	})

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}
	game, err := reward.NewGameType(req.GameType)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid game type", err, walletID)
	}
	if err := s.calculator.ValidateGameResult(game, req.Score, req.Level, req.BlocksDestroyed); err != nil {
		return nil, s.fail(ctx, span, "Invalid game result", err, walletID)
	}

	w, tierCfg, err := s.loadWallet(ctx, walletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to load wallet", err, walletID)
	}
	span.SetAttributes(attribute.String("tier", w.Tier().String()))

	if !tierCfg.Unlocks(game.String()) {
		err := fmt.Errorf("%w: %s on %s", reward.ErrGameLocked, game, tierCfg.Name)
		return nil, s.fail(ctx, span, "Game not unlocked for tier", err, walletID)
	}

	if err := s.checkCooldown(ctx, walletID, ratelimit.ActionGameResult, s.rateLimit.GameCooldown); err != nil {
		return nil, s.fail(ctx, span, "Game result rejected by cooldown", err, walletID)
	}

	var result *SubmitGameResultResponse
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		locked, err := s.walletRepo.FindByIDForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if _, err := s.capTracker.Reconcile(ctx, locked, now); err != nil {
			return err
		}

		daily := locked.Daily()
		proposedCurrency, proposedPoints := s.calculator.GameReward(game, req.Score, req.Level, req.BlocksDestroyed, tierCfg.Multiplier)
		currency := service.ClampCurrency(proposedCurrency, daily.CurrencyEarnedToday(), tierCfg.DailyCurrencyCap)
		points := service.ClampPoints(proposedPoints, daily.PointsEarnedToday(), tierCfg.DailyPointsCap)
		currencyCapped := currency.LessThan(proposedCurrency)
		pointsCapped := points < proposedPoints

		exhausted := currency.IsZero() && points == 0 && (currencyCapped || pointsCapped)
		if exhausted && s.rewardConfig.RejectWhenCapExhausted {
			return reward.ErrDailyCapExhausted
		}

		var reason *string
		if currencyCapped || pointsCapped {
			r := capReachedReason
			reason = &r
		}

		entry, err := s.ledgerService.Apply(ctx, locked, service.Posting{
			Currency:    currency,
			Points:      points,
			Source:      ledger.SourceGame,
			Status:      ledger.StatusEarned,
			Reason:      reason,
			GamesPlayed: 1,
			At:          now,
		})
		if err != nil {
			return err
		}

		result = &SubmitGameResultResponse{
			Game:                   game.String(),
			CurrencyEarned:         currency,
			PointsEarned:           points,
			CurrencyCapped:         currencyCapped,
			PointsCapped:           pointsCapped,
			DailyCurrencyRemaining: locked.Daily().RemainingCurrency(tierCfg.DailyCurrencyCap),
			DailyPointsRemaining:   locked.Daily().RemainingPoints(tierCfg.DailyPointsCap),
			CurrencyBalance:        locked.Balances().Currency,
			PointsBalance:          locked.Balances().Points,
			EntryID:                entry.EntryID(),
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to submit game result", err, walletID)
	}

	s.metrics.RecordReward(ctx, ledger.SourceGame.String(), tierCfg.Name.String(), result.CurrencyEarned.InexactFloat64(), result.PointsEarned)
	s.metrics.RecordLedgerEntry(ctx, ledger.SourceGame.String(), ledger.StatusEarned.String())
	if result.CurrencyCapped {
		s.metrics.RecordDailyCapHit(ctx, "zwap")
	}
	if result.PointsCapped {
		s.metrics.RecordDailyCapHit(ctx, "zpts")
	}

	s.logger.Info(ctx, "Game result accepted", map[string]interface{}{
		"wallet_id":       walletID,
		"game_type":       result.Game,
		"currency_earned": result.CurrencyEarned.StringFixed(reward.CurrencyPlaces),
		"points_earned":   result.PointsEarned,
		"entry_id":        result.EntryID,
	})

	return result, nil
}

// ListTiers ティア一覧を取得
func (s *RewardApplicationService) ListTiers(ctx context.Context) *ListTiersResponse {
	_, span := s.tracer.Start(ctx, "RewardApplicationService.ListTiers")
	defer span.End()

	configs := s.registry.All()
	tiers := make([]TierInfo, 0, len(configs))
	for _, c := range configs {
		tiers = append(tiers, TierInfo{
			Name:             c.Name.String(),
			Multiplier:       c.Multiplier,
			DailyPointsCap:   c.DailyPointsCap,
			DailyCurrencyCap: c.DailyCurrencyCap,
			Games:            append([]string(nil), c.Games...),
		})
	}

	return &ListTiersResponse{
		Tiers: tiers,
		Games: s.calculator.Games(),
	}
}

// loadWallet ウォレットとティア設定を取得
func (s *RewardApplicationService) loadWallet(ctx context.Context, walletID string) (*wallet.Wallet, tier.Config, error) {
	w, err := s.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		return nil, tier.Config{}, err
	}
	tierCfg, err := s.registry.Lookup(w.Tier())
	if err != nil {
		return nil, tier.Config{}, fmt.Errorf("wallet %s has unsupported tier: %w", walletID, err)
	}
	return w, tierCfg, nil
}

// checkCooldown クールダウンを確認し、受付可能なら受付時刻を記録
func (s *RewardApplicationService) checkCooldown(ctx context.Context, walletID string, action ratelimit.Action, cooldown time.Duration) error {
	err := s.limiter.CheckAndRecord(ctx, walletID, action, cooldown)
	if err == nil {
		return nil
	}
	if errors.Is(err, ratelimit.ErrRateLimited) {
		s.metrics.RecordRateLimited(ctx, action.String())
		return err
	}
	return fmt.Errorf("failed to check cooldown: %w", err)
}

// fail スパンとログにエラーを記録して返す
func (s *RewardApplicationService) fail(ctx context.Context, span trace.Span, message string, err error, walletID string) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	fields := map[string]interface{}{
		"wallet_id": walletID,
	}
	if isClientError(err) {
		s.logger.Warn(ctx, message, mergeError(fields, err))
		return err
	}

	s.logger.Error(ctx, message, err, fields)
	s.metrics.RecordError(ctx, "reward_failed")
	return err
}

// isClientError 呼び出し側の入力や状態に起因するエラーかどうか
func isClientError(err error) bool {
	for _, target := range []error{
		wallet.ErrInvalidWalletID,
		wallet.ErrWalletNotFound,
		reward.ErrInvalidSteps,
		reward.ErrInvalidScore,
		reward.ErrInvalidLevel,
		reward.ErrInvalidBlocks,
		reward.ErrUnknownGame,
		reward.ErrGameLocked,
		reward.ErrDailyCapExhausted,
		ratelimit.ErrRateLimited,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mergeError(fields map[string]interface{}, err error) map[string]interface{} {
	fields["error"] = err.Error()
	return fields
}
