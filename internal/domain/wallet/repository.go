package wallet

import (
	"context"
	"time"
)

// WalletRepository ウォレットリポジトリインターフェース
type WalletRepository interface {
	// FindByID ウォレットを取得
	FindByID(ctx context.Context, id string) (*Wallet, error)

	// FindByIDForUpdate トランザクション内で行ロックを取得してウォレットを取得
	FindByIDForUpdate(ctx context.Context, id string) (*Wallet, error)

	// ResetDailyCounters 最終リセット日が today より前の場合のみ日次カウンターをゼロにする
	ResetDailyCounters(ctx context.Context, id string, today time.Time) (bool, error)

	// ApplyDelta 残高とカウンターを加算で更新
	ApplyDelta(ctx context.Context, id string, delta Delta) error
}
