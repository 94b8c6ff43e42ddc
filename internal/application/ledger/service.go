package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/ledger"
	"reward-server/internal/domain/service"
	"reward-server/internal/domain/transaction"
	"reward-server/internal/domain/wallet"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

var maxPoints = decimal.NewFromInt(math.MaxInt64)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
	readRetries         = 3
)

// LedgerApplicationService 台帳アプリケーションサービス
type LedgerApplicationService struct {
	walletRepo    wallet.WalletRepository
	ledgerRepo    ledger.LedgerRepository
	txManager     transaction.TransactionManager
	ledgerService *service.LedgerService
	rewardConfig  *config.RewardConfig
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
	newBackOff    func() backoff.BackOff
	now           func() time.Time
}

// NewLedgerApplicationService 新しいLedgerApplicationServiceを作成
func NewLedgerApplicationService(
	walletRepo wallet.WalletRepository,
	ledgerRepo ledger.LedgerRepository,
	txManager transaction.TransactionManager,
	ledgerService *service.LedgerService,
	rewardConfig *config.RewardConfig,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		walletRepo:    walletRepo,
		ledgerRepo:    ledgerRepo,
		txManager:     txManager,
		ledgerService: ledgerService,
		rewardConfig:  rewardConfig,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("ledger-service"),
		newBackOff:    func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:           time.Now,
	}
}

// Adjust 管理者による加算・減算
// レート制限と日次上限の対象外
func (s *LedgerApplicationService) Adjust(ctx context.Context, req *AdjustRequest) (*AdjustResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.Adjust")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", req.WalletID),
		attribute.String("amount", req.Amount.String()),
		attribute.String("currency", req.Currency),
		attribute.Bool("is_deduction", req.IsDeduction),
	)

	s.logger.Info(ctx, "Adjusting wallet", map[string]interface{}{
		"wallet_id":    req.WalletID,
		"amount":       req.Amount.String(),
		"currency":     req.Currency,
		"is_deduction": req.IsDeduction,
	})

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, s.fail(ctx, span, "Adjustment reason is missing", ledger.ErrReasonRequired, walletID)
	}
	if err := ledger.ValidateReason(&reason); err != nil {
		return nil, s.fail(ctx, span, "Adjustment reason is too long", err, walletID)
	}

	currencyDelta, pointsDelta, err := parseAdjustment(req.Amount, req.Currency)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid adjustment amount", err, walletID)
	}

	status := ledger.StatusEarned
	if req.IsDeduction {
		status = ledger.StatusRevoked
		currencyDelta = currencyDelta.Neg()
		pointsDelta = -pointsDelta
	}

	var result *AdjustResponse
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.walletRepo.FindByIDForUpdate(ctx, walletID)
		if err != nil {
			return err
		}

		entry, err := s.ledgerService.Apply(ctx, locked, service.Posting{
			Currency:     currencyDelta,
			Points:       pointsDelta,
			Source:       ledger.SourceAdminAdjustment,
			Status:       status,
			Reason:       &reason,
			IsAdjustment: true,
			At:           s.now(),
		})
		if err != nil {
			return err
		}

		result = &AdjustResponse{
			Entry:           toEntryDTO(entry),
			CurrencyBalance: locked.Balances().Currency,
			PointsBalance:   locked.Balances().Points,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to adjust wallet", err, walletID)
	}

	s.metrics.RecordLedgerEntry(ctx, ledger.SourceAdminAdjustment.String(), status.String())
	s.logger.Info(ctx, "Wallet adjusted", map[string]interface{}{
		"wallet_id": walletID,
		"entry_id":  result.Entry.EntryID,
		"status":    status.String(),
		"reason":    reason,
	})

	return result, nil
}

// ConvertPoints ポイントを通貨に交換
func (s *LedgerApplicationService) ConvertPoints(ctx context.Context, req *ConvertPointsRequest) (*ConvertPointsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.ConvertPoints")
	defer span.End()

	span.SetAttributes(
		attribute.String("wallet_id", req.WalletID),
		attribute.Int64("points", req.Points),
	)

	s.logger.Info(ctx, "Converting points", map[string]interface{}{
		"wallet_id": req.WalletID,
		"points":    req.Points,
	})

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}

	rate := s.rewardConfig.PointsPerCurrency
	if req.Points <= 0 {
		err := fmt.Errorf("%w: points must be positive", ledger.ErrInvalidAmount)
		return nil, s.fail(ctx, span, "Invalid conversion amount", err, walletID)
	}
	currency := decimal.NewFromInt(req.Points).Div(decimal.NewFromInt(rate)).Truncate(2)
	if !currency.IsPositive() {
		err := fmt.Errorf("%w: converting %d points yields less than 0.01 at %d points per unit", ledger.ErrInvalidAmount, req.Points, rate)
		return nil, s.fail(ctx, span, "Invalid conversion amount", err, walletID)
	}

	var result *ConvertPointsResponse
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.walletRepo.FindByIDForUpdate(ctx, walletID)
		if err != nil {
			return err
		}
		if locked.Balances().Points < req.Points {
			return fmt.Errorf("%w: have %d, need %d", ledger.ErrInsufficientPoints, locked.Balances().Points, req.Points)
		}

		entry, err := s.ledgerService.Apply(ctx, locked, service.Posting{
			Currency: currency,
			Points:   -req.Points,
			Source:   ledger.SourceConversion,
			Status:   ledger.StatusClaimed,
			At:       s.now(),
		})
		if err != nil {
			return err
		}

		result = &ConvertPointsResponse{
			WalletID:         walletID,
			PointsSpent:      req.Points,
			CurrencyReceived: currency,
			Rate:             rate,
			CurrencyBalance:  locked.Balances().Currency,
			PointsBalance:    locked.Balances().Points,
			EntryID:          entry.EntryID(),
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to convert points", err, walletID)
	}

	s.metrics.RecordLedgerEntry(ctx, ledger.SourceConversion.String(), ledger.StatusClaimed.String())
	s.logger.Info(ctx, "Points converted", map[string]interface{}{
		"wallet_id":         walletID,
		"points_spent":      result.PointsSpent,
		"currency_received": result.CurrencyReceived.StringFixed(2),
		"entry_id":          result.EntryID,
	})

	return result, nil
}

// History 台帳履歴を新しい順に取得
func (s *LedgerApplicationService) History(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.History")
	defer span.End()

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	span.SetAttributes(
		attribute.String("wallet_id", walletID),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	if _, err := s.walletRepo.FindByID(ctx, walletID); err != nil {
		return nil, s.fail(ctx, span, "Failed to find wallet", err, walletID)
	}

	entries, err := s.ledgerRepo.FindByWalletID(ctx, walletID, limit, offset)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to find ledger entries", fmt.Errorf("failed to find ledger entries: %w", err), walletID)
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, toEntryDTO(e))
	}

	return &HistoryResponse{
		WalletID: walletID,
		Entries:  dtos,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

// Reconcile 台帳の合計とウォレット残高を照合（読み取りのみ、ストレージエラーは再試行）
func (s *LedgerApplicationService) Reconcile(ctx context.Context, req *ReconcileRequest) (*ReconcileResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.Reconcile")
	defer span.End()

	walletID, err := wallet.NormalizeID(req.WalletID)
	if err != nil {
		return nil, s.fail(ctx, span, "Invalid wallet id", err, req.WalletID)
	}
	span.SetAttributes(attribute.String("wallet_id", walletID))

	attempts := 0
	operation := func() (*ReconcileResponse, error) {
		attempts++
		w, err := s.walletRepo.FindByID(ctx, walletID)
		if err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		sums, err := s.ledgerRepo.SumByWalletID(ctx, walletID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum ledger entries: %w", err)
		}

		balances := w.Balances()
		currencyDrift := balances.Currency.Sub(sums.Currency)
		pointsDrift := balances.Points - sums.Points
		return &ReconcileResponse{
			WalletID:        walletID,
			Entries:         sums.Entries,
			LedgerCurrency:  sums.Currency,
			BalanceCurrency: balances.Currency,
			CurrencyDrift:   currencyDrift,
			LedgerPoints:    sums.Points,
			BalancePoints:   balances.Points,
			PointsDrift:     pointsDrift,
			Consistent:      currencyDrift.IsZero() && pointsDrift == 0,
		}, nil
	}

	result, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(readRetries),
	)
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to reconcile wallet", err, walletID)
	}

	if !result.Consistent {
		s.logger.Warn(ctx, "Ledger and balance drifted", map[string]interface{}{
			"wallet_id":      walletID,
			"currency_drift": result.CurrencyDrift.StringFixed(2),
			"points_drift":   result.PointsDrift,
		})
	}

	return result, nil
}

// parseAdjustment 調整額を通貨またはポイントの正の加算量に変換
func parseAdjustment(value decimal.Decimal, currency string) (decimal.Decimal, int64, error) {
	if !value.IsPositive() {
		return decimal.Zero, 0, fmt.Errorf("%w: amount must be positive", ledger.ErrInvalidAmount)
	}

	switch strings.ToLower(strings.TrimSpace(currency)) {
	case "", "zwap":
		if !value.Round(2).Equal(value) {
			return decimal.Zero, 0, fmt.Errorf("%w: at most 2 decimal places", ledger.ErrInvalidAmount)
		}
		if value.GreaterThan(ledger.MaxCurrencyAmount) {
			return decimal.Zero, 0, fmt.Errorf("%w: exceeds %s", ledger.ErrInvalidAmount, ledger.MaxCurrencyAmount.StringFixed(2))
		}
		return value, 0, nil
	case "zpts":
		if !value.IsInteger() {
			return decimal.Zero, 0, fmt.Errorf("%w: points must be a whole number", ledger.ErrInvalidAmount)
		}
		if value.GreaterThan(maxPoints) {
			return decimal.Zero, 0, fmt.Errorf("%w: exceeds %s points", ledger.ErrInvalidAmount, maxPoints.String())
		}
		return decimal.Zero, value.IntPart(), nil
	default:
		return decimal.Zero, 0, fmt.Errorf("%w: unknown currency %q", ledger.ErrInvalidAmount, currency)
	}
}

func toEntryDTO(e *ledger.Entry) EntryDTO {
	return EntryDTO{
		EntryID:        e.EntryID(),
		WalletID:       e.WalletID(),
		CurrencyAmount: e.CurrencyAmount(),
		PointsAmount:   e.PointsAmount(),
		Source:         e.Source().String(),
		Status:         e.Status().String(),
		Reason:         e.Reason(),
		IsAdjustment:   e.IsAdjustment(),
		CreatedAt:      e.CreatedAt(),
	}
}

// fail スパンとログにエラーを記録して返す
func (s *LedgerApplicationService) fail(ctx context.Context, span trace.Span, message string, err error, walletID string) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	if isClientError(err) {
		s.logger.Warn(ctx, message, map[string]interface{}{
			"wallet_id": walletID,
			"error":     err.Error(),
		})
		return err
	}

	s.logger.Error(ctx, message, err, map[string]interface{}{
		"wallet_id": walletID,
	})
	s.metrics.RecordError(ctx, "ledger_failed")
	return err
}

func isClientError(err error) bool {
	return errors.Is(err, wallet.ErrInvalidWalletID) ||
		errors.Is(err, wallet.ErrWalletNotFound) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrReasonRequired) ||
		errors.Is(err, ledger.ErrReasonTooLong) ||
		errors.Is(err, ledger.ErrInsufficientPoints)
}
