package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/ledger"
)

// LedgerRepository MySQL実装のLedgerRepository
// reward_ledger は追記専用で、UPDATE と DELETE は発行しない
type LedgerRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewLedgerRepository 新しいLedgerRepositoryを作成
func NewLedgerRepository(db *DB) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		tracer: otel.Tracer("ledger-repository"),
	}
}

// Append エントリを追記
func (r *LedgerRepository) Append(ctx context.Context, e *ledger.Entry) error {
	ctx, span := r.tracer.Start(ctx, "LedgerRepository.Append")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.entry_id", e.EntryID()),
		attribute.String("db.wallet_id", e.WalletID()),
		attribute.String("db.source", e.Source().String()),
		attribute.String("db.currency_amount", e.CurrencyAmount().StringFixed(2)),
		attribute.Int64("db.points_amount", e.PointsAmount()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "reward_ledger"),
	)

	query := `
		INSERT INTO reward_ledger (
			entry_id, wallet_id, currency_amount, points_amount,
			source, status, reason, is_adjustment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var reason interface{}
	if e.Reason() != nil {
		reason = *e.Reason()
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		e.EntryID(),
		e.WalletID(),
		e.CurrencyAmount().StringFixed(2),
		e.PointsAmount(),
		e.Source().String(),
		e.Status().String(),
		reason,
		e.IsAdjustment(),
		e.CreatedAt(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "ledger entry appended")
	return nil
}

// FindByWalletID ウォレットIDでエントリを新しい順に取得
func (r *LedgerRepository) FindByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*ledger.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "LedgerRepository.FindByWalletID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", walletID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "reward_ledger"),
	)

	query := `
		SELECT entry_id, wallet_id, currency_amount, points_amount,
			source, status, reason, is_adjustment, created_at
		FROM reward_ledger
		WHERE wallet_id = ?
		ORDER BY created_at DESC, entry_id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, walletID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var entryID, dbWalletID, dbSource, dbStatus string
		var currencyAmount decimal.Decimal
		var pointsAmount int64
		var reason sql.NullString
		var isAdjustment bool
		var createdAt time.Time

		if err := rows.Scan(
			&entryID,
			&dbWalletID,
			&currencyAmount,
			&pointsAmount,
			&dbSource,
			&dbStatus,
			&reason,
			&isAdjustment,
			&createdAt,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		source, err := ledger.NewSource(dbSource)
		if err != nil {
			return nil, fmt.Errorf("invalid ledger source: %w", err)
		}
		status, err := ledger.NewStatus(dbStatus)
		if err != nil {
			return nil, fmt.Errorf("invalid ledger status: %w", err)
		}

		var reasonPtr *string
		if reason.Valid {
			reasonPtr = &reason.String
		}

		e, err := ledger.NewEntry(entryID, dbWalletID, currencyAmount, pointsAmount, source, status, reasonPtr, isAdjustment, createdAt.UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(entries)))
	span.SetStatus(otelcodes.Ok, "ledger entries found")
	return entries, nil
}

// SumByWalletID ウォレットの全エントリの合計を取得
func (r *LedgerRepository) SumByWalletID(ctx context.Context, walletID string) (ledger.Sums, error) {
	ctx, span := r.tracer.Start(ctx, "LedgerRepository.SumByWalletID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.wallet_id", walletID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "reward_ledger"),
	)

	query := `
		SELECT COALESCE(SUM(currency_amount), 0), COALESCE(SUM(points_amount), 0), COUNT(*)
		FROM reward_ledger
		WHERE wallet_id = ?
	`

	var sums ledger.Sums
	err := r.db.conn(ctx).QueryRowContext(ctx, query, walletID).Scan(
		&sums.Currency,
		&sums.Points,
		&sums.Entries,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return ledger.Sums{}, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.entries", sums.Entries))
	span.SetStatus(otelcodes.Ok, "ledger summed")
	return sums, nil
}
