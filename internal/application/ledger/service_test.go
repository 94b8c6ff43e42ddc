package ledger

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"reward-server/internal/domain/ledger"
	"reward-server/internal/domain/service"
	"reward-server/internal/domain/tier"
	"reward-server/internal/domain/wallet"
	"reward-server/internal/infrastructure/config"
	otelinfra "reward-server/internal/infrastructure/observability/otel"
)

const testWalletID = "0xabc0001"

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, mwr *MockWalletRepository, mlr *MockLedgerRepository) *LedgerApplicationService {
	t.Helper()

	logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"), otelinfra.WithWriter(io.Discard))
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)

	svc := NewLedgerApplicationService(
		mwr,
		mlr,
		&MockTransactionManager{},
		service.NewLedgerService(mwr, mlr),
		&config.RewardConfig{PointsPerCurrency: 1000},
		logger,
		metrics,
	)
	svc.now = func() time.Time { return testNow }
	svc.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return svc
}

func newWallet(currency string, points int64) *wallet.Wallet {
	return wallet.MustNewWallet(
		testWalletID,
		tier.NameStarter,
		nil,
		wallet.Balances{Currency: decimal.RequireFromString(currency), Points: points},
		wallet.Totals{CurrencyEarned: decimal.Zero},
		wallet.NewDailyCounter(0, decimal.Zero, testNow),
	)
}

func TestLedgerApplicationService_Adjust(t *testing.T) {
	tests := []struct {
		name         string
		req          *AdjustRequest
		setupMocks   func(*MockWalletRepository, *MockLedgerRepository)
		wantStatus   string
		wantCurrency string
		wantPoints   int64
		wantBalance  string
		wantPtsBal   int64
		wantError    error
	}{
		{
			name: "正常系: 通貨の加算",
			req:  &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("12.50"), Reason: "support ticket 42"},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(newWallet("10", 0), nil)
				mlr.On("Append", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
					return e.IsAdjustment() && e.Source() == ledger.SourceAdminAdjustment &&
						e.Reason() != nil && *e.Reason() == "support ticket 42"
				})).Return(nil)
				mwr.On("ApplyDelta", mock.Anything, testWalletID, mock.MatchedBy(func(d wallet.Delta) bool {
					return d.Currency.Equal(decimal.RequireFromString("12.5")) &&
						d.DailyCurrency.IsZero() && d.CurrencyEarned.IsZero()
				})).Return(nil)
			},
			wantStatus:   "earned",
			wantCurrency: "12.50",
			wantBalance:  "22.50",
		},
		{
			name: "正常系: 通貨の減算は残高がマイナスになり得る",
			req:  &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("15"), Reason: "fraud", IsDeduction: true},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(newWallet("10", 0), nil)
				mlr.On("Append", mock.Anything, mock.Anything).Return(nil)
				mwr.On("ApplyDelta", mock.Anything, testWalletID, mock.Anything).Return(nil)
			},
			wantStatus:   "revoked",
			wantCurrency: "-15.00",
			wantBalance:  "-5.00",
		},
		{
			name: "正常系: ポイントの加算",
			req:  &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("40"), Currency: "ZPTS", Reason: "event bonus"},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(newWallet("0", 10), nil)
				mlr.On("Append", mock.Anything, mock.Anything).Return(nil)
				mwr.On("ApplyDelta", mock.Anything, testWalletID, mock.MatchedBy(func(d wallet.Delta) bool {
					return d.Points == 40 && d.DailyPoints == 0
				})).Return(nil)
			},
			wantStatus:   "earned",
			wantCurrency: "0.00",
			wantPoints:   40,
			wantBalance:  "0.00",
			wantPtsBal:   50,
		},
		{
			name:       "異常系: 理由なし",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1"), Reason: "  "},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrReasonRequired,
		},
		{
			name:       "異常系: ゼロ",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("0"), Reason: "x"},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: 小数3桁",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1.005"), Reason: "x"},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: 小数のポイント",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1.5"), Currency: "zpts", Reason: "x"},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: 未知の通貨",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1"), Currency: "usd", Reason: "x"},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name: "正常系: int64上限ちょうどのポイント加算",
			req:  &AdjustRequest{WalletID: testWalletID, Amount: decimal.NewFromInt(math.MaxInt64), Currency: "zpts", Reason: "migration"},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(newWallet("10", 0), nil)
				mlr.On("Append", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
					return e.PointsAmount() == math.MaxInt64 && e.Status() == ledger.StatusEarned
				})).Return(nil)
				mwr.On("ApplyDelta", mock.Anything, testWalletID, mock.Anything).Return(nil)
			},
			wantStatus:   "earned",
			wantCurrency: "0.00",
			wantPoints:   math.MaxInt64,
			wantBalance:  "10.00",
			wantPtsBal:   math.MaxInt64,
		},
		{
			name:       "異常系: int64を超えるポイント加算",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("9223372036854775808"), Currency: "zpts", Reason: "x"},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: int64を超えるポイント減算",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("9223372036854775808"), Currency: "zpts", Reason: "x", IsDeduction: true},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: 金額列に収まらない通貨",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1000000000000000000"), Reason: "x"},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: 理由が長すぎる",
			req:        &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1"), Reason: strings.Repeat("r", ledger.MaxReasonLength+1)},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrReasonTooLong,
		},
		{
			name: "異常系: ウォレットが存在しない",
			req:  &AdjustRequest{WalletID: testWalletID, Amount: decimal.RequireFromString("1"), Reason: "x"},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(nil, wallet.ErrWalletNotFound)
			},
			wantError: wallet.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mwr := new(MockWalletRepository)
			mlr := new(MockLedgerRepository)
			tt.setupMocks(mwr, mlr)

			svc := newTestService(t, mwr, mlr)
			got, err := svc.Adjust(t.Context(), tt.req)

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				mlr.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Entry.Status)
			assert.Equal(t, tt.wantCurrency, got.Entry.CurrencyAmount.StringFixed(2))
			assert.Equal(t, tt.wantPoints, got.Entry.PointsAmount)
			assert.True(t, got.Entry.IsAdjustment)
			assert.Equal(t, tt.wantBalance, got.CurrencyBalance.StringFixed(2))
			assert.Equal(t, tt.wantPtsBal, got.PointsBalance)
			assert.Equal(t, testNow, got.Entry.CreatedAt)
			mwr.AssertExpectations(t)
			mlr.AssertExpectations(t)
		})
	}
}

func TestLedgerApplicationService_ConvertPoints(t *testing.T) {
	tests := []struct {
		name         string
		req          *ConvertPointsRequest
		setupMocks   func(*MockWalletRepository, *MockLedgerRepository)
		wantCurrency string
		wantBalance  string
		wantPtsBal   int64
		wantError    error
	}{
		{
			name: "正常系: 1500ポイントを交換",
			req:  &ConvertPointsRequest{WalletID: testWalletID, Points: 1500},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(newWallet("2", 2000), nil)
				mlr.On("Append", mock.Anything, mock.MatchedBy(func(e *ledger.Entry) bool {
					return e.Source() == ledger.SourceConversion && e.Status() == ledger.StatusClaimed &&
						e.PointsAmount() == -1500 && e.CurrencyAmount().Equal(decimal.RequireFromString("1.5"))
				})).Return(nil)
				mwr.On("ApplyDelta", mock.Anything, testWalletID, mock.MatchedBy(func(d wallet.Delta) bool {
					return d.CurrencyEarned.IsZero() && d.DailyCurrency.IsZero()
				})).Return(nil)
			},
			wantCurrency: "1.50",
			wantBalance:  "3.50",
			wantPtsBal:   500,
		},
		{
			name: "異常系: ポイント不足",
			req:  &ConvertPointsRequest{WalletID: testWalletID, Points: 5000},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByIDForUpdate", mock.Anything, testWalletID).Return(newWallet("0", 100), nil)
			},
			wantError: ledger.ErrInsufficientPoints,
		},
		{
			name:       "異常系: ゼロポイント",
			req:        &ConvertPointsRequest{WalletID: testWalletID, Points: 0},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
		{
			name:       "異常系: 最小単位未満",
			req:        &ConvertPointsRequest{WalletID: testWalletID, Points: 9},
			setupMocks: func(*MockWalletRepository, *MockLedgerRepository) {},
			wantError:  ledger.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mwr := new(MockWalletRepository)
			mlr := new(MockLedgerRepository)
			tt.setupMocks(mwr, mlr)

			svc := newTestService(t, mwr, mlr)
			got, err := svc.ConvertPoints(t.Context(), tt.req)

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				mlr.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrency, got.CurrencyReceived.StringFixed(2))
			assert.Equal(t, int64(1000), got.Rate)
			assert.Equal(t, tt.wantBalance, got.CurrencyBalance.StringFixed(2))
			assert.Equal(t, tt.wantPtsBal, got.PointsBalance)
			mwr.AssertExpectations(t)
			mlr.AssertExpectations(t)
		})
	}
}

func TestLedgerApplicationService_History(t *testing.T) {
	reason := "daily cap reached"
	entries := []*ledger.Entry{
		ledger.MustNewEntry("e2", testWalletID, decimal.Zero, 0, ledger.SourceWalking, ledger.StatusEarned, &reason, false, testNow),
		ledger.MustNewEntry("e1", testWalletID, decimal.NewFromInt(90), 0, ledger.SourceWalking, ledger.StatusEarned, nil, false, testNow.Add(-time.Hour)),
	}

	tests := []struct {
		name       string
		req        *HistoryRequest
		setupMocks func(*MockWalletRepository, *MockLedgerRepository)
		wantLimit  int
		wantOffset int
		wantLen    int
		wantError  error
	}{
		{
			name: "正常系: 既定の件数",
			req:  &HistoryRequest{WalletID: testWalletID},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(newWallet("90", 0), nil)
				mlr.On("FindByWalletID", mock.Anything, testWalletID, 50, 0).Return(entries, nil)
			},
			wantLimit: 50,
			wantLen:   2,
		},
		{
			name: "正常系: 上限で切り詰め、負のオフセットは0",
			req:  &HistoryRequest{WalletID: testWalletID, Limit: 1000, Offset: -5},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(newWallet("90", 0), nil)
				mlr.On("FindByWalletID", mock.Anything, testWalletID, 100, 0).Return([]*ledger.Entry{}, nil)
			},
			wantLimit: 100,
			wantLen:   0,
		},
		{
			name: "異常系: ウォレットが存在しない",
			req:  &HistoryRequest{WalletID: testWalletID},
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(nil, wallet.ErrWalletNotFound)
			},
			wantError: wallet.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mwr := new(MockWalletRepository)
			mlr := new(MockLedgerRepository)
			tt.setupMocks(mwr, mlr)

			svc := newTestService(t, mwr, mlr)
			got, err := svc.History(t.Context(), tt.req)

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
			assert.Len(t, got.Entries, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, "e2", got.Entries[0].EntryID)
				require.NotNil(t, got.Entries[0].Reason)
				assert.Equal(t, reason, *got.Entries[0].Reason)
			}
		})
	}
}

func TestLedgerApplicationService_Reconcile(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(*MockWalletRepository, *MockLedgerRepository)
		wantConsistent bool
		wantDrift      string
		wantError      error
		wantFindCalls  int
	}{
		{
			name: "正常系: 一致",
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(newWallet("90", 12), nil)
				mlr.On("SumByWalletID", mock.Anything, testWalletID).
					Return(ledger.Sums{Currency: decimal.NewFromInt(90), Points: 12, Entries: 3}, nil)
			},
			wantConsistent: true,
			wantDrift:      "0.00",
			wantFindCalls:  1,
		},
		{
			name: "正常系: 不一致を報告",
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(newWallet("100", 12), nil)
				mlr.On("SumByWalletID", mock.Anything, testWalletID).
					Return(ledger.Sums{Currency: decimal.NewFromInt(90), Points: 12, Entries: 3}, nil)
			},
			wantConsistent: false,
			wantDrift:      "10.00",
			wantFindCalls:  1,
		},
		{
			name: "正常系: 一時的なエラーは再試行",
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(nil, errors.New("connection refused")).Once()
				mwr.On("FindByID", mock.Anything, testWalletID).Return(newWallet("90", 0), nil)
				mlr.On("SumByWalletID", mock.Anything, testWalletID).
					Return(ledger.Sums{Currency: decimal.NewFromInt(90), Entries: 1}, nil)
			},
			wantConsistent: true,
			wantDrift:      "0.00",
			wantFindCalls:  2,
		},
		{
			name: "異常系: 再試行の上限",
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(nil, errors.New("connection refused"))
			},
			wantFindCalls: 3,
		},
		{
			name: "異常系: ウォレットが存在しない場合は再試行しない",
			setupMocks: func(mwr *MockWalletRepository, mlr *MockLedgerRepository) {
				mwr.On("FindByID", mock.Anything, testWalletID).Return(nil, wallet.ErrWalletNotFound)
			},
			wantError:     wallet.ErrWalletNotFound,
			wantFindCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mwr := new(MockWalletRepository)
			mlr := new(MockLedgerRepository)
			tt.setupMocks(mwr, mlr)

			svc := newTestService(t, mwr, mlr)
			got, err := svc.Reconcile(t.Context(), &ReconcileRequest{WalletID: testWalletID})

			mwr.AssertNumberOfCalls(t, "FindByID", tt.wantFindCalls)
			if tt.wantDrift == "" {
				require.Error(t, err)
				if tt.wantError != nil {
					assert.ErrorIs(t, err, tt.wantError)
				}
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantConsistent, got.Consistent)
			assert.Equal(t, tt.wantDrift, got.CurrencyDrift.StringFixed(2))
		})
	}
}
