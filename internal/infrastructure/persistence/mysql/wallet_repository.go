package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/tier"
	"reward-server/internal/domain/wallet"
)

const walletColumns = `
		wallet_id, tier, region,
		currency_balance, points_balance,
		steps_total, games_played_total, currency_earned_total,
		daily_points_earned, daily_currency_earned, daily_reset_date
`

// WalletRepository MySQL実装のWalletRepository
type WalletRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewWalletRepository 新しいWalletRepositoryを作成
func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{
		db:     db,
		tracer: otel.Tracer("wallet-repository"),
	}
}

// FindByID ウォレットを取得
func (r *WalletRepository) FindByID(ctx context.Context, id string) (*wallet.Wallet, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", id),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallets"),
	)

	query := `SELECT` + walletColumns + `FROM wallets WHERE wallet_id = ?`
	return r.find(ctx, span, query, id)
}

// FindByIDForUpdate トランザクション内で行ロックを取得してウォレットを取得
func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, id string) (*wallet.Wallet, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindByIDForUpdate")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", id),
		attribute.String("db.operation", "SELECT FOR UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	if _, ok := txFromContext(ctx); !ok {
		err := errors.New("FindByIDForUpdate requires a transaction")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	query := `SELECT` + walletColumns + `FROM wallets WHERE wallet_id = ? FOR UPDATE`
	return r.find(ctx, span, query, id)
}

func (r *WalletRepository) find(ctx context.Context, span trace.Span, query string, id string) (*wallet.Wallet, error) {
	var dbID, dbTier string
	var region sql.NullString
	var currencyBalance, earnedTotal, dailyCurrency decimal.Decimal
	var pointsBalance, stepsTotal, gamesTotal, dailyPoints int64
	var dailyResetDate sql.NullTime

	err := r.db.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&dbID,
		&dbTier,
		&region,
		&currencyBalance,
		&pointsBalance,
		&stepsTotal,
		&gamesTotal,
		&earnedTotal,
		&dailyPoints,
		&dailyCurrency,
		&dailyResetDate,
	)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "wallet not found")
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	tierName, err := tier.NewName(dbTier)
	if err != nil {
		return nil, fmt.Errorf("invalid tier: %w", err)
	}

	var regionPtr *string
	if region.Valid {
		regionPtr = &region.String
	}
	var resetDate time.Time
	if dailyResetDate.Valid {
		resetDate = dailyResetDate.Time
	}

	w, err := wallet.NewWallet(
		dbID,
		tierName,
		regionPtr,
		wallet.Balances{Currency: currencyBalance, Points: pointsBalance},
		wallet.Totals{Steps: stepsTotal, GamesPlayed: gamesTotal, CurrencyEarned: earnedTotal},
		wallet.NewDailyCounter(dailyPoints, dailyCurrency, resetDate),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct wallet entity: %w", err)
	}

	span.SetAttributes(attribute.String("db.tier", tierName.String()))
	span.SetStatus(otelcodes.Ok, "wallet found")
	return w, nil
}

// ResetDailyCounters 最終リセット日が today より前の場合のみ日次カウンターをゼロにする
// 同じ日の2回目以降は行が更新されず false を返す
func (r *WalletRepository) ResetDailyCounters(ctx context.Context, id string, today time.Time) (bool, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.ResetDailyCounters")
	defer span.End()

	today = wallet.UTCDate(today)
	span.SetAttributes(
		attribute.String("db.wallet_id", id),
		attribute.String("db.reset_date", today.Format("2006-01-02")),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		UPDATE wallets
		SET daily_points_earned = 0, daily_currency_earned = 0, daily_reset_date = ?
		WHERE wallet_id = ? AND (daily_reset_date IS NULL OR daily_reset_date < ?)
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, today, id, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to reset daily counters: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "daily counters reconciled")
	return rowsAffected > 0, nil
}

// ApplyDelta 残高とカウンターを加算で更新
func (r *WalletRepository) ApplyDelta(ctx context.Context, id string, d wallet.Delta) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.ApplyDelta")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", id),
		attribute.String("db.currency_delta", d.Currency.StringFixed(2)),
		attribute.Int64("db.points_delta", d.Points),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		UPDATE wallets
		SET currency_balance = currency_balance + ?,
			points_balance = points_balance + ?,
			steps_total = steps_total + ?,
			games_played_total = games_played_total + ?,
			currency_earned_total = currency_earned_total + ?,
			daily_currency_earned = daily_currency_earned + ?,
			daily_points_earned = daily_points_earned + ?
		WHERE wallet_id = ?
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		d.Currency.StringFixed(2),
		d.Points,
		d.Steps,
		d.GamesPlayed,
		d.CurrencyEarned.StringFixed(2),
		d.DailyCurrency.StringFixed(2),
		d.DailyPoints,
		id,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to apply wallet delta: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Error, "wallet not found")
		return wallet.ErrWalletNotFound
	}

	span.SetStatus(otelcodes.Ok, "wallet delta applied")
	return nil
}
