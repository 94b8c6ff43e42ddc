package leaderboard

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// RegionalFraction 地域未設定時の地域順位の近似係数
	RegionalFraction = 0.25
	// LocalFraction ローカル順位の近似係数
	LocalFraction = 0.10
)

// Row ランキングの1行
type Row struct {
	WalletID string
	Tier     string
	Value    decimal.Decimal
}

// Totals カテゴリ全体の集計
type Totals struct {
	Users int64
	Sum   decimal.Decimal
	Max   decimal.Decimal
}

// Standing 単一ウォレットのカテゴリ値
type Standing struct {
	WalletID string
	Tier     string
	Region   *string
	Value    decimal.Decimal
}

// Rank 順位とその母数
type Rank struct {
	Rank     int64
	Total    int64
	IsApprox bool
}

// GlobalRank 自分より値が大きいウォレット数 + 1。同値は同順位
func GlobalRank(countAbove int64) int64 {
	return countAbove + 1
}

// ApproxRank 全体順位に係数を掛けた近似順位（最小1）
func ApproxRank(global int64, fraction float64) int64 {
	r := int64(math.Ceil(float64(global) * fraction))
	if r < 1 {
		return 1
	}
	return r
}

// AnonymizedUsername ウォレットから決定的に導出する匿名ユーザー名
func AnonymizedUsername(salt, wallet string) string {
	sum := sha256.Sum256([]byte(salt + ":" + strings.ToLower(wallet)))
	return "zwapper_" + hex.EncodeToString(sum[:])[:8]
}

// RedactWallet 先頭6文字と末尾4文字以外を伏せたウォレット表記
func RedactWallet(wallet string) string {
	if len(wallet) <= 10 {
		return wallet
	}
	return wallet[:6] + "..." + wallet[len(wallet)-4:]
}
