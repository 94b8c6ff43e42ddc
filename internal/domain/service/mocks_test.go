package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"reward-server/internal/domain/ledger"
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
