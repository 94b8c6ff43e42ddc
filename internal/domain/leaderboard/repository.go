package leaderboard

import (
	"context"

	"github.com/shopspring/decimal"
)

// RankingRepository ランキング用の読み取り専用リポジトリ
type RankingRepository interface {
	// Top カテゴリ値の降順で上位を取得
	Top(ctx context.Context, category Category, limit int) ([]Row, error)

	// Totals カテゴリ全体の集計
	Totals(ctx context.Context, category Category) (Totals, error)

	// Standing ウォレットのカテゴリ値を取得
	Standing(ctx context.Context, category Category, walletID string) (*Standing, error)

	// CountAbove 値が value より大きいウォレット数。region が nil でなければその地域に限定
	CountAbove(ctx context.Context, category Category, value decimal.Decimal, region *string) (int64, error)

	// Count ウォレット数。region が nil でなければその地域に限定
	Count(ctx context.Context, region *string) (int64, error)

	// Neighbors 直上と直下のウォレットをそれぞれ最大 n 件取得
	Neighbors(ctx context.Context, category Category, value decimal.Decimal, walletID string, n int) (above []Row, below []Row, err error)
}
