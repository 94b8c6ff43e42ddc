package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reward-server/internal/domain/leaderboard"
	"reward-server/internal/domain/wallet"
)

// LeaderboardRepository MySQL実装のRankingRepository（読み取り専用）
type LeaderboardRepository struct {
	db     *sqlx.DB
	tracer trace.Tracer
}

// NewLeaderboardRepository 新しいLeaderboardRepositoryを作成
func NewLeaderboardRepository(db *DB) *LeaderboardRepository {
	return &LeaderboardRepository{
		db:     db.Sqlx(),
		tracer: otel.Tracer("leaderboard-repository"),
	}
}

type rankingRow struct {
	WalletID string          `db:"wallet_id"`
	Tier     string          `db:"tier"`
	Value    decimal.Decimal `db:"value"`
}

type standingRow struct {
	WalletID string          `db:"wallet_id"`
	Tier     string          `db:"tier"`
	Region   sql.NullString  `db:"region"`
	Value    decimal.Decimal `db:"value"`
}

type totalsRow struct {
	Users int64           `db:"users"`
	Total decimal.Decimal `db:"total_value"`
	Max   decimal.Decimal `db:"max_value"`
}

// column カテゴリのカラム名。ホワイトリスト外は ErrUnknownCategory
func column(category leaderboard.Category) (string, error) {
	col := category.Column()
	if col == "" {
		return "", fmt.Errorf("%w: %s", leaderboard.ErrUnknownCategory, category)
	}
	return col, nil
}

func (r *LeaderboardRepository) startSpan(ctx context.Context, name string, category leaderboard.Category) (context.Context, trace.Span) {
	ctx, span := r.tracer.Start(ctx, name)
	span.SetAttributes(
		attribute.String("db.category", category.String()),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallets"),
	)
	return ctx, span
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}

func toRows(in []rankingRow) []leaderboard.Row {
	out := make([]leaderboard.Row, 0, len(in))
	for _, r := range in {
		out = append(out, leaderboard.Row{WalletID: r.WalletID, Tier: r.Tier, Value: r.Value})
	}
	return out
}

// Top カテゴリ値の降順で上位を取得
func (r *LeaderboardRepository) Top(ctx context.Context, category leaderboard.Category, limit int) ([]leaderboard.Row, error) {
	ctx, span := r.startSpan(ctx, "LeaderboardRepository.Top", category)
	defer span.End()
	span.SetAttributes(attribute.Int("db.limit", limit))

	col, err := column(category)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT wallet_id, tier, %[1]s AS value
		FROM wallets
		ORDER BY %[1]s DESC
		LIMIT ?
	`, col)

	var rows []rankingRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, limit); err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to select leaderboard: %w", err)
	}

	span.SetAttributes(attribute.Int("db.result_count", len(rows)))
	span.SetStatus(otelcodes.Ok, "leaderboard selected")
	return toRows(rows), nil
}

// Totals カテゴリ全体の集計
func (r *LeaderboardRepository) Totals(ctx context.Context, category leaderboard.Category) (leaderboard.Totals, error) {
	ctx, span := r.startSpan(ctx, "LeaderboardRepository.Totals", category)
	defer span.End()

	col, err := column(category)
	if err != nil {
		failSpan(span, err)
		return leaderboard.Totals{}, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) AS users, COALESCE(SUM(%[1]s), 0) AS total_value, COALESCE(MAX(%[1]s), 0) AS max_value
		FROM wallets
	`, col)

	var row totalsRow
	if err := sqlx.GetContext(ctx, r.db, &row, query); err != nil {
		failSpan(span, err)
		return leaderboard.Totals{}, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "leaderboard aggregated")
	return leaderboard.Totals{Users: row.Users, Sum: row.Total, Max: row.Max}, nil
}

// Standing ウォレットのカテゴリ値を取得
func (r *LeaderboardRepository) Standing(ctx context.Context, category leaderboard.Category, walletID string) (*leaderboard.Standing, error) {
	ctx, span := r.startSpan(ctx, "LeaderboardRepository.Standing", category)
	defer span.End()
	span.SetAttributes(attribute.String("db.wallet_id", walletID))

	col, err := column(category)
	if err != nil {
		failSpan(span, err)
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT wallet_id, tier, region, %s AS value
		FROM wallets
		WHERE wallet_id = ?
	`, col)

	var row standingRow
	err = sqlx.GetContext(ctx, r.db, &row, query, walletID)
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "wallet not found")
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		failSpan(span, err)
		return nil, fmt.Errorf("failed to find standing: %w", err)
	}

	s := &leaderboard.Standing{WalletID: row.WalletID, Tier: row.Tier, Value: row.Value}
	if row.Region.Valid && row.Region.String != "" {
		region := row.Region.String
		s.Region = &region
	}

	span.SetStatus(otelcodes.Ok, "standing found")
	return s, nil
}

// CountAbove 値が value より大きいウォレット数
func (r *LeaderboardRepository) CountAbove(ctx context.Context, category leaderboard.Category, value decimal.Decimal, region *string) (int64, error) {
	ctx, span := r.startSpan(ctx, "LeaderboardRepository.CountAbove", category)
	defer span.End()

	col, err := column(category)
	if err != nil {
		failSpan(span, err)
		return 0, err
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM wallets WHERE %s > ?`, col)
	args := []interface{}{value.String()}
	if region != nil {
		query += ` AND region = ?`
		args = append(args, *region)
		span.SetAttributes(attribute.String("db.region", *region))
	}

	var n int64
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		failSpan(span, err)
		return 0, fmt.Errorf("failed to count wallets above: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "counted")
	return n, nil
}

// Count ウォレット数
func (r *LeaderboardRepository) Count(ctx context.Context, region *string) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "LeaderboardRepository.Count")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallets"),
	)

	query := `SELECT COUNT(*) FROM wallets`
	var args []interface{}
	if region != nil {
		query += ` WHERE region = ?`
		args = append(args, *region)
		span.SetAttributes(attribute.String("db.region", *region))
	}

	var n int64
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		failSpan(span, err)
		return 0, fmt.Errorf("failed to count wallets: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "counted")
	return n, nil
}

// Neighbors 直上と直下のウォレットをそれぞれ最大 n 件取得
// 同値のウォレットは wallet_id の昇順で前後を決める。above は値の降順で返す
func (r *LeaderboardRepository) Neighbors(ctx context.Context, category leaderboard.Category, value decimal.Decimal, walletID string, n int) ([]leaderboard.Row, []leaderboard.Row, error) {
	ctx, span := r.startSpan(ctx, "LeaderboardRepository.Neighbors", category)
	defer span.End()
	span.SetAttributes(
		attribute.String("db.wallet_id", walletID),
		attribute.Int("db.limit", n),
	)

	col, err := column(category)
	if err != nil {
		failSpan(span, err)
		return nil, nil, err
	}
	if n <= 0 {
		span.SetStatus(otelcodes.Ok, "no neighbors requested")
		return nil, nil, nil
	}

	v := value.String()

	aboveQuery := fmt.Sprintf(`
		SELECT wallet_id, tier, %[1]s AS value
		FROM wallets
		WHERE %[1]s > ? OR (%[1]s = ? AND wallet_id < ?)
		ORDER BY %[1]s ASC, wallet_id DESC
		LIMIT ?
	`, col)

	var above []rankingRow
	if err := sqlx.SelectContext(ctx, r.db, &above, aboveQuery, v, v, walletID, n); err != nil {
		failSpan(span, err)
		return nil, nil, fmt.Errorf("failed to select neighbors above: %w", err)
	}
	for i, j := 0, len(above)-1; i < j; i, j = i+1, j-1 {
		above[i], above[j] = above[j], above[i]
	}

	belowQuery := fmt.Sprintf(`
		SELECT wallet_id, tier, %[1]s AS value
		FROM wallets
		WHERE %[1]s < ? OR (%[1]s = ? AND wallet_id > ?)
		ORDER BY %[1]s DESC, wallet_id ASC
		LIMIT ?
	`, col)

	var below []rankingRow
	if err := sqlx.SelectContext(ctx, r.db, &below, belowQuery, v, v, walletID, n); err != nil {
		failSpan(span, err)
		return nil, nil, fmt.Errorf("failed to select neighbors below: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "neighbors selected")
	return toRows(above), toRows(below), nil
}
