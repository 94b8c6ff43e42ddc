package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/leaderboard"
	"reward-server/internal/domain/wallet"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

const readRetries = 3

// LeaderboardApplicationService ランキングアプリケーションサービス（読み取り専用）
type LeaderboardApplicationService struct {
	rankingRepo leaderboard.RankingRepository
	cfg         *config.LeaderboardConfig
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
	newBackOff  func() backoff.BackOff
	now         func() time.Time
}

// NewLeaderboardApplicationService 新しいLeaderboardApplicationServiceを作成
func NewLeaderboardApplicationService(
	rankingRepo leaderboard.RankingRepository,
	cfg *config.LeaderboardConfig,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LeaderboardApplicationService {
	return &LeaderboardApplicationService{
		rankingRepo: rankingRepo,
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("leaderboard-service"),
		newBackOff:  func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:         time.Now,
	}
}

// TopN カテゴリ上位のランキングを取得
// 同値の並びはストレージの返却順
func (s *LeaderboardApplicationService) TopN(ctx context.Context, req *TopRequest) (*TopResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LeaderboardApplicationService.TopN")
	defer span.End()

	category, err := leaderboard.NewCategory(req.Category)
	if err != nil {
		return nil, s.fail(ctx, span, "Unknown leaderboard category", err, "")
	}

	limit := s.clampLimit(req.Limit)
	span.SetAttributes(
		attribute.String("category", category.String()),
		attribute.Int("limit", limit),
	)

	rows, err := retryRead(ctx, s, func() ([]leaderboard.Row, error) {
		return s.rankingRepo.Top(ctx, category, limit)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to load leaderboard", err, "")
	}

	totals, err := retryRead(ctx, s, func() (leaderboard.Totals, error) {
		return s.rankingRepo.Totals(ctx, category)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to load leaderboard totals", err, "")
	}

	entries := make([]EntryDTO, 0, len(rows))
	for i, r := range rows {
		e := s.toEntry(r)
		e.Rank = int64(i + 1)
		entries = append(entries, e)
	}

	return &TopResponse{
		Category:    category.String(),
		GeneratedAt: s.now().UTC(),
		Totals: TotalsDTO{
			Users:      totals.Users,
			TotalValue: totals.Sum,
			MaxValue:   totals.Max,
		},
		Entries: entries,
	}, nil
}

// RankOf ウォレットの全体・地域・ローカル順位を取得
func (s *LeaderboardApplicationService) RankOf(ctx context.Context, req *RankOfRequest) (*RankOfResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LeaderboardApplicationService.RankOf")
	defer span.End()

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}
	category, err := leaderboard.NewCategory(req.Category)
	if err != nil {
		return nil, s.fail(ctx, span, "Unknown leaderboard category", err, walletID)
	}
	neighbors := s.clampNeighbors(req.Neighbors)

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.String("category", category.String()),
		attribute.Int("neighbors", neighbors),
	)

	result, err := retryRead(ctx, s, func() (*RankOfResponse, error) {
		return s.rankOf(ctx, walletID, category, neighbors)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to compute rank", err, walletID)
	}

	span.SetAttributes(attribute.Int64("global_rank", result.Global.Rank))
	return result, nil
}

func (s *LeaderboardApplicationService) rankOf(ctx context.Context, walletID string, category leaderboard.Category, neighbors int) (*RankOfResponse, error) {
	standing, err := s.rankingRepo.Standing(ctx, category, walletID)
	if err != nil {
		return nil, err
	}

	above, err := s.rankingRepo.CountAbove(ctx, category, standing.Value, nil)
	if err != nil {
		return nil, err
	}
	users, err := s.rankingRepo.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	global := leaderboard.GlobalRank(above)

	var regional RankDTO
	if standing.Region != nil {
		regionAbove, err := s.rankingRepo.CountAbove(ctx, category, standing.Value, standing.Region)
		if err != nil {
			return nil, err
		}
		regionUsers, err := s.rankingRepo.Count(ctx, standing.Region)
		if err != nil {
			return nil, err
		}
		regional = RankDTO{Rank: leaderboard.GlobalRank(regionAbove), Total: regionUsers}
	} else {
		regional = approxRank(global, users, leaderboard.RegionalFraction)
	}

	result := &RankOfResponse{
		Username: leaderboard.AnonymizedUsername(s.cfg.UsernameSalt, walletID),
		Category: category.String(),
		Value:    standing.Value,
		Global:   RankDTO{Rank: global, Total: users},
		Regional: regional,
		Local:    approxRank(global, users, leaderboard.LocalFraction),
	}

	if neighbors > 0 {
		up, down, err := s.rankingRepo.Neighbors(ctx, category, standing.Value, walletID, neighbors)
		if err != nil {
			return nil, err
		}
		result.Neighbors = &NeighborsDTO{
			Above: s.toEntries(up),
			Below: s.toEntries(down),
		}
	}

	return result, nil
}

func approxRank(global, users int64, fraction float64) RankDTO {
	return RankDTO{
		Rank:     leaderboard.ApproxRank(global, fraction),
		Total:    leaderboard.ApproxRank(users, fraction),
		IsApprox: true,
	}
}

func (s *LeaderboardApplicationService) toEntry(r leaderboard.Row) EntryDTO {
	return EntryDTO{
		Username: leaderboard.AnonymizedUsername(s.cfg.UsernameSalt, r.WalletID),
		Wallet:   leaderboard.RedactWallet(r.WalletID),
		Value:    r.Value,
		Tier:     r.Tier,
	}
}

func (s *LeaderboardApplicationService) toEntries(rows []leaderboard.Row) []EntryDTO {
	out := make([]EntryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.toEntry(r))
	}
	return out
}

func (s *LeaderboardApplicationService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

func (s *LeaderboardApplicationService) clampNeighbors(n int) int {
	if n < 0 {
		return 0
	}
	if n > s.cfg.MaxNeighbors {
		return s.cfg.MaxNeighbors
	}
	return n
}

// retryRead 読み取り操作をストレージエラー時のみ再試行
func retryRead[T any](ctx context.Context, s *LeaderboardApplicationService, op func() (T, error)) (T, error) {
	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && isClientError(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(s.newBackOff()), backoff.WithMaxTries(readRetries))
}

// fail スパンとログにエラーを記録して返す
func (s *LeaderboardApplicationService) fail(ctx context.Context, span trace.Span, message string, err error, walletID string) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	fields := map[string]interface{}{}
	if walletID != "" {
		fields["wallet_id"] = walletID
	}

	if isClientError(err) {
		fields["error"] = err.Error()
		s.logger.Warn(ctx, message, fields)
		return err
	}

	s.logger.Error(ctx, message, err, fields)
	s.metrics.RecordError(ctx, "leaderboard_failed")
	return fmt.Errorf("leaderboard query failed: %w", err)
}

func isClientError(err error) bool {
	return errors.Is(err, leaderboard.ErrUnknownCategory) ||
		errors.Is(err, wallet.ErrWalletNotFound) ||
		errors.Is(err, wallet.ErrInvalidWalletID)
}
