package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// Sums ウォレットごとの台帳合計
type Sums struct {
	Currency decimal.Decimal
	Points   int64
	Entries  int64
}

// LedgerRepository 報酬台帳リポジトリインターフェース（追記専用）
type LedgerRepository interface {
	// Append エントリを追記
	Append(ctx context.Context, entry *Entry) error

	// FindByWalletID ウォレットIDでエントリを新しい順に取得
	FindByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*Entry, error)

	// SumByWalletID ウォレットの全エントリの合計を取得
	SumByWalletID(ctx context.Context, walletID string) (Sums, error)
}
