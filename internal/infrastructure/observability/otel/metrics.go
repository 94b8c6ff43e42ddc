package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 報酬付与件数
	RewardCount metric.Int64Counter

	// 付与した通貨額の分布
	RewardAmount metric.Float64Histogram

	// 付与したポイント数
	PointsAwarded metric.Int64Counter

	// クールダウンで拒否された件数
	RateLimitedCount metric.Int64Counter

	// 日次上限で減額された件数
	DailyCapHitCount metric.Int64Counter

	// 台帳エントリ数
	LedgerEntryCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー数
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	rewardCount, err := meter.Int64Counter(
		"rewards_total",
		metric.WithDescription("Total number of accepted reward claims"),
	)
	if err != nil {
		return nil, err
	}

	rewardAmount, err := meter.Float64Histogram(
		"reward_amount",
		metric.WithDescription("Currency awarded per claim"),
	)
	if err != nil {
		return nil, err
	}

	pointsAwarded, err := meter.Int64Counter(
		"points_awarded_total",
		metric.WithDescription("Total points awarded"),
	)
	if err != nil {
		return nil, err
	}

	rateLimitedCount, err := meter.Int64Counter(
		"rate_limited_total",
		metric.WithDescription("Total number of requests rejected by cooldown"),
	)
	if err != nil {
		return nil, err
	}

	dailyCapHitCount, err := meter.Int64Counter(
		"daily_cap_hits_total",
		metric.WithDescription("Total number of awards reduced by the daily cap"),
	)
	if err != nil {
		return nil, err
	}

	ledgerEntryCount, err := meter.Int64Counter(
		"ledger_entries_total",
		metric.WithDescription("Total number of ledger entries appended"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RewardCount:      rewardCount,
		RewardAmount:     rewardAmount,
		PointsAwarded:    pointsAwarded,
		RateLimitedCount: rateLimitedCount,
		DailyCapHitCount: dailyCapHitCount,
		LedgerEntryCount: ledgerEntryCount,
		RequestCount:     requestCount,
		ResponseTime:     responseTime,
		ErrorCount:       errorCount,
	}, nil
}

// RecordReward 報酬付与を記録
func (m *Metrics) RecordReward(ctx context.Context, source, tier string, currency float64, points int64) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("tier", tier),
	)
	m.RewardCount.Add(ctx, 1, attrs)
	m.RewardAmount.Record(ctx, currency, attrs)
	if points > 0 {
		m.PointsAwarded.Add(ctx, points, attrs)
	}
}

// RecordRateLimited クールダウンによる拒否を記録
func (m *Metrics) RecordRateLimited(ctx context.Context, action string) {
	m.RateLimitedCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
		),
	)
}

// RecordDailyCapHit 日次上限による減額を記録
func (m *Metrics) RecordDailyCapHit(ctx context.Context, currency string) {
	m.DailyCapHitCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("currency", currency),
		),
	)
}

// RecordLedgerEntry 台帳エントリの追記を記録
func (m *Metrics) RecordLedgerEntry(ctx context.Context, source, status string) {
	m.LedgerEntryCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", status),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
