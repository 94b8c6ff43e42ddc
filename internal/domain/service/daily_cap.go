package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"reward-server/internal/domain/wallet"
)

// DailyCapTracker 日次獲得上限のドメインサービス
type DailyCapTracker struct {
	walletRepo wallet.WalletRepository
}

// NewDailyCapTracker 新しいDailyCapTrackerを作成
func NewDailyCapTracker(walletRepo wallet.WalletRepository) *DailyCapTracker {
	return &DailyCapTracker{
		walletRepo: walletRepo,
	}
}

// Reconcile UTC日付が変わっていれば日次カウンターをリセットして永続化する
// 報酬の計算前に、行ロックを取得したトランザクション内で呼び出すこと
func (t *DailyCapTracker) Reconcile(ctx context.Context, w *wallet.Wallet, now time.Time) (bool, error) {
	if !w.Daily().NeedsReset(now) {
		return false, nil
	}
	if _, err := t.walletRepo.ResetDailyCounters(ctx, w.ID(), wallet.UTCDate(now)); err != nil {
		return false, fmt.Errorf("failed to reset daily counters: %w", err)
	}
	return w.Daily().Reconcile(now), nil
}

// ClampCurrency min(proposed, max(0, limit-used))
func ClampCurrency(proposed, used, limit decimal.Decimal) decimal.Decimal {
	if !proposed.IsPositive() {
		return decimal.Zero
	}
	remaining := limit.Sub(used)
	if !remaining.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(proposed, remaining)
}

// ClampPoints min(proposed, max(0, limit-used))
func ClampPoints(proposed, used, limit int64) int64 {
	if proposed <= 0 {
		return 0
	}
	remaining := limit - used
	if remaining <= 0 {
		return 0
	}
	if proposed < remaining {
		return proposed
	}
	return remaining
}
