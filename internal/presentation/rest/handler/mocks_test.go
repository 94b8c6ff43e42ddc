package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"reward-server/internal/domain/leaderboard"
	"reward-server/internal/domain/ledger"
	"reward-server/internal/domain/ratelimit"
	"reward-server/internal/domain/wallet"
)

// MockWalletRepository モックウォレットリポジトリ
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByID(ctx context.Context, id string) (*wallet.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindByIDForUpdate(ctx context.Context, id string) (*wallet.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) ResetDailyCounters(ctx context.Context, id string, today time.Time) (bool, error) {
	args := m.Called(ctx, id, today)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletRepository) ApplyDelta(ctx context.Context, id string, delta wallet.Delta) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

// MockLedgerRepository モック台帳リポジトリ
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindByWalletID(ctx context.Context, walletID string, limit, offset int) ([]*ledger.Entry, error) {
	args := m.Called(ctx, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepository) SumByWalletID(ctx context.Context, walletID string) (ledger.Sums, error) {
	args := m.Called(ctx, walletID)
	return args.Get(0).(ledger.Sums), args.Error(1)
}

// MockRankingRepository モックランキングリポジトリ
type MockRankingRepository struct {
	mock.Mock
}

func (m *MockRankingRepository) Top(ctx context.Context, category leaderboard.Category, limit int) ([]leaderboard.Row, error) {
	args := m.Called(ctx, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]leaderboard.Row), args.Error(1)
}

func (m *MockRankingRepository) Totals(ctx context.Context, category leaderboard.Category) (leaderboard.Totals, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(leaderboard.Totals), args.Error(1)
}

func (m *MockRankingRepository) Standing(ctx context.Context, category leaderboard.Category, walletID string) (*leaderboard.Standing, error) {
	args := m.Called(ctx, category, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*leaderboard.Standing), args.Error(1)
}

func (m *MockRankingRepository) CountAbove(ctx context.Context, category leaderboard.Category, value decimal.Decimal, region *string) (int64, error) {
	args := m.Called(ctx, category, value, region)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRankingRepository) Count(ctx context.Context, region *string) (int64, error) {
	args := m.Called(ctx, region)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRankingRepository) Neighbors(ctx context.Context, category leaderboard.Category, value decimal.Decimal, walletID string, n int) ([]leaderboard.Row, []leaderboard.Row, error) {
	args := m.Called(ctx, category, value, walletID, n)
	var above, below []leaderboard.Row
	if v := args.Get(0); v != nil {
		above = v.([]leaderboard.Row)
	}
	if v := args.Get(1); v != nil {
		below = v.([]leaderboard.Row)
	}
	return above, below, args.Error(2)
}

// MockLimiter モックレートリミッター
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) CheckAndRecord(ctx context.Context, walletID string, action ratelimit.Action, cooldown time.Duration) error {
	args := m.Called(ctx, walletID, action, cooldown)
	return args.Error(0)
}

// MockTransactionManager モックトランザクションマネージャー
// 実際のトランザクションは使わず、関数を直接実行
type MockTransactionManager struct{}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
