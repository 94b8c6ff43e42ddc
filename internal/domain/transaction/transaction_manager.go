package transaction

import (
	"context"
)

// TransactionManager トランザクション管理インターフェース
// fn に渡される ctx を使ったリポジトリ呼び出しは同一トランザクションで実行される
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
