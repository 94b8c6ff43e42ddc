package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyCounter UTC日単位の獲得量カウンター
type DailyCounter struct {
	pointsEarnedToday   int64
	currencyEarnedToday decimal.Decimal
	lastResetDate       time.Time // UTCの0時。未リセットの場合はゼロ値
}

// NewDailyCounter 新しいDailyCounterを作成
func NewDailyCounter(pointsEarnedToday int64, currencyEarnedToday decimal.Decimal, lastResetDate time.Time) DailyCounter {
	if !lastResetDate.IsZero() {
		lastResetDate = UTCDate(lastResetDate)
	}
	return DailyCounter{
		pointsEarnedToday:   pointsEarnedToday,
		currencyEarnedToday: currencyEarnedToday,
		lastResetDate:       lastResetDate,
	}
}

// PointsEarnedToday 本日獲得したポイント
func (d DailyCounter) PointsEarnedToday() int64 {
	return d.pointsEarnedToday
}

// CurrencyEarnedToday 本日獲得した通貨
func (d DailyCounter) CurrencyEarnedToday() decimal.Decimal {
	return d.currencyEarnedToday
}

// LastResetDate 最後にリセットした日付
func (d DailyCounter) LastResetDate() time.Time {
	return d.lastResetDate
}

// NeedsReset now の UTC 日付が最終リセット日より後かどうか
func (d DailyCounter) NeedsReset(now time.Time) bool {
	return d.lastResetDate.IsZero() || d.lastResetDate.Before(UTCDate(now))
}

// Reconcile 日付が変わっていればカウンターをゼロに戻す
// 同じ日に何度呼んでも結果は変わらない。リセットした場合 true を返す
func (d *DailyCounter) Reconcile(now time.Time) bool {
	if !d.NeedsReset(now) {
		return false
	}
	d.pointsEarnedToday = 0
	d.currencyEarnedToday = decimal.Zero
	d.lastResetDate = UTCDate(now)
	return true
}

// RemainingCurrency 本日の残り通貨枠
func (d DailyCounter) RemainingCurrency(limit decimal.Decimal) decimal.Decimal {
	r := limit.Sub(d.currencyEarnedToday)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// RemainingPoints 本日の残りポイント枠
func (d DailyCounter) RemainingPoints(limit int64) int64 {
	r := limit - d.pointsEarnedToday
	if r < 0 {
		return 0
	}
	return r
}

// UTCDate 時刻をUTCの日付（0時）に切り詰める
func UTCDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
