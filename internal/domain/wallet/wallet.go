package wallet

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"reward-server/internal/domain/tier"
)

var walletIDRegex = regexp.MustCompile(`^[a-z0-9_\-\.:]{1,128}$`)

// Balances 残高
type Balances struct {
	Currency decimal.Decimal
	Points   int64
}

// Totals 累計値（ランキング用）
type Totals struct {
	Steps          int64
	GamesPlayed    int64
	CurrencyEarned decimal.Decimal
}

// Wallet ウォレットエンティティ
// 残高とカウンターは Delta 経由でのみ変更される
type Wallet struct {
	id       string
	tier     tier.Name
	region   *string
	balances Balances
	totals   Totals
	daily    DailyCounter
}

// NormalizeID ウォレットIDを小文字に正規化して検証する
func NormalizeID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if !walletIDRegex.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWalletID, id)
	}
	return normalized, nil
}

// NewWallet 新しいWalletエンティティを作成
func NewWallet(id string, tierName tier.Name, region *string, balances Balances, totals Totals, daily DailyCounter) (*Wallet, error) {
	normalized, err := NormalizeID(id)
	if err != nil {
		return nil, err
	}
	if region != nil && strings.TrimSpace(*region) == "" {
		region = nil
	}
	return &Wallet{
		id:       normalized,
		tier:     tierName,
		region:   region,
		balances: balances,
		totals:   totals,
		daily:    daily,
	}, nil
}

// MustNewWallet テスト用ヘルパー: NewWalletを呼び出し、エラーが発生した場合はpanicする
func MustNewWallet(id string, tierName tier.Name, region *string, balances Balances, totals Totals, daily DailyCounter) *Wallet {
	w, err := NewWallet(id, tierName, region, balances, totals, daily)
	if err != nil {
		panic(err)
	}
	return w
}

// ID ウォレットIDを返す
func (w *Wallet) ID() string {
	return w.id
}

// Tier ティアを返す
func (w *Wallet) Tier() tier.Name {
	return w.tier
}

// Region 地域を返す（未設定ならnil）
func (w *Wallet) Region() *string {
	return w.region
}

// Balances 残高を返す
func (w *Wallet) Balances() Balances {
	return w.balances
}

// Totals 累計値を返す
func (w *Wallet) Totals() Totals {
	return w.totals
}

// Daily 日次カウンターを返す
func (w *Wallet) Daily() *DailyCounter {
	return &w.daily
}

// Apply 永続化済みの Delta をメモリ上のエンティティに反映する
func (w *Wallet) Apply(d Delta) {
	w.balances.Currency = w.balances.Currency.Add(d.Currency)
	w.balances.Points += d.Points
	w.totals.Steps += d.Steps
	w.totals.GamesPlayed += d.GamesPlayed
	w.totals.CurrencyEarned = w.totals.CurrencyEarned.Add(d.CurrencyEarned)
	w.daily.currencyEarnedToday = w.daily.currencyEarnedToday.Add(d.DailyCurrency)
	w.daily.pointsEarnedToday += d.DailyPoints
}

// Delta ウォレットへの加算量。ストレージ層では col = col + ? で適用される
type Delta struct {
	Currency       decimal.Decimal
	Points         int64
	Steps          int64
	GamesPlayed    int64
	CurrencyEarned decimal.Decimal
	DailyCurrency  decimal.Decimal
	DailyPoints    int64
}

// IsZero 加算量がすべてゼロかどうか
func (d Delta) IsZero() bool {
	return d.Currency.IsZero() && d.Points == 0 && d.Steps == 0 && d.GamesPlayed == 0 &&
		d.CurrencyEarned.IsZero() && d.DailyCurrency.IsZero() && d.DailyPoints == 0
}
