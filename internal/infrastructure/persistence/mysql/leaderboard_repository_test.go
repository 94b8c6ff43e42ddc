package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"reward-server/internal/domain/leaderboard"
	"reward-server/internal/domain/wallet"
)

func newTestLeaderboardRepository(t *testing.T) (*LeaderboardRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &LeaderboardRepository{
		db:     sqlx.NewDb(db, "sqlmock"),
		tracer: otel.Tracer("test"),
	}, mock
}

func TestLeaderboardRepository_Top(t *testing.T) {
	tests := []struct {
		name      string
		category  leaderboard.Category
		setupMock func(sqlmock.Sqlmock)
		wantLen   int
		wantError bool
		errorType error
	}{
		{
			name:     "正常系: 歩数の上位を取得",
			category: leaderboard.CategorySteps,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"wallet_id", "tier", "value"}).
					AddRow("0xaaa", "plus", 12000).
					AddRow("0xbbb", "starter", 8000)
				mock.ExpectQuery(`SELECT wallet_id, tier, steps_total AS value\s+FROM wallets\s+ORDER BY steps_total DESC`).
					WithArgs(2).
					WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name:     "正常系: 獲得通貨は小数",
			category: leaderboard.CategoryEarned,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"wallet_id", "tier", "value"}).
					AddRow("0xaaa", "plus", "310.25")
				mock.ExpectQuery(`currency_earned_total AS value`).
					WithArgs(2).
					WillReturnRows(rows)
			},
			wantLen: 1,
		},
		{
			name:      "異常系: 未定義カテゴリはクエリを発行しない",
			category:  leaderboard.Category("likes"),
			setupMock: func(mock sqlmock.Sqlmock) {},
			wantError: true,
			errorType: leaderboard.ErrUnknownCategory,
		},
		{
			name:     "異常系: DBエラー",
			category: leaderboard.CategoryGames,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`games_played_total AS value`).
					WillReturnError(errors.New("database error"))
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestLeaderboardRepository(t)
			tt.setupMock(mock)

			got, err := repo.Top(context.Background(), tt.category, 2)

			if tt.wantError {
				assert.Error(t, err)
				if tt.errorType != nil {
					assert.ErrorIs(t, err, tt.errorType)
				}
			} else {
				require.NoError(t, err)
				assert.Len(t, got, tt.wantLen)
				assert.Equal(t, "0xaaa", got[0].WalletID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLeaderboardRepository_Totals(t *testing.T) {
	repo, mock := newTestLeaderboardRepository(t)

	rows := sqlmock.NewRows([]string{"users", "total_value", "max_value"}).AddRow(3, 20000, 12000)
	mock.ExpectQuery(`SELECT COUNT\(\*\) AS users, COALESCE\(SUM\(steps_total\), 0\)`).
		WillReturnRows(rows)

	got, err := repo.Totals(context.Background(), leaderboard.CategorySteps)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Users)
	assert.True(t, decimal.NewFromInt(20000).Equal(got.Sum))
	assert.True(t, decimal.NewFromInt(12000).Equal(got.Max))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardRepository_Standing(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(sqlmock.Sqlmock)
		wantRegion *string
		wantError  error
	}{
		{
			name: "正常系: 地域あり",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"wallet_id", "tier", "region", "value"}).
					AddRow("0xabc", "starter", "jp", 40)
				mock.ExpectQuery(`SELECT wallet_id, tier, region, points_balance AS value`).
					WithArgs("0xabc").
					WillReturnRows(rows)
			},
			wantRegion: strPtr("jp"),
		},
		{
			name: "正常系: 地域なし",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"wallet_id", "tier", "region", "value"}).
					AddRow("0xabc", "starter", nil, 40)
				mock.ExpectQuery(`points_balance AS value`).
					WithArgs("0xabc").
					WillReturnRows(rows)
			},
		},
		{
			name: "異常系: ウォレットが見つからない",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`points_balance AS value`).
					WithArgs("0xabc").
					WillReturnError(sql.ErrNoRows)
			},
			wantError: wallet.ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestLeaderboardRepository(t)
			tt.setupMock(mock)

			got, err := repo.Standing(context.Background(), leaderboard.CategoryPoints, "0xabc")

			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.True(t, decimal.NewFromInt(40).Equal(got.Value))
				assert.Equal(t, tt.wantRegion, got.Region)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLeaderboardRepository_CountAbove(t *testing.T) {
	tests := []struct {
		name      string
		region    *string
		setupMock func(sqlmock.Sqlmock)
		want      int64
	}{
		{
			name: "正常系: 全体",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wallets WHERE steps_total > \?`).
					WithArgs("5000").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
			},
			want: 4,
		},
		{
			name:   "正常系: 地域限定",
			region: strPtr("jp"),
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wallets WHERE steps_total > \? AND region = \?`).
					WithArgs("5000", "jp").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestLeaderboardRepository(t)
			tt.setupMock(mock)

			got, err := repo.CountAbove(context.Background(), leaderboard.CategorySteps, decimal.NewFromInt(5000), tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLeaderboardRepository_Count(t *testing.T) {
	repo, mock := newTestLeaderboardRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wallets WHERE region = \?`).
		WithArgs("jp").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	got, err := repo.Count(context.Background(), strPtr("jp"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaderboardRepository_Neighbors(t *testing.T) {
	t.Run("正常系: 上は値の降順で返す", func(t *testing.T) {
		repo, mock := newTestLeaderboardRepository(t)

		mock.ExpectQuery(`WHERE steps_total > \? OR \(steps_total = \? AND wallet_id < \?\)`).
			WithArgs("5000", "5000", "0xabc", 2).
			WillReturnRows(sqlmock.NewRows([]string{"wallet_id", "tier", "value"}).
				AddRow("0xbbb", "starter", 5100).
				AddRow("0xccc", "plus", 7000))
		mock.ExpectQuery(`WHERE steps_total < \? OR \(steps_total = \? AND wallet_id > \?\)`).
			WithArgs("5000", "5000", "0xabc", 2).
			WillReturnRows(sqlmock.NewRows([]string{"wallet_id", "tier", "value"}).
				AddRow("0xddd", "starter", 4000))

		above, below, err := repo.Neighbors(context.Background(), leaderboard.CategorySteps, decimal.NewFromInt(5000), "0xabc", 2)
		require.NoError(t, err)
		require.Len(t, above, 2)
		assert.Equal(t, "0xccc", above[0].WalletID)
		assert.Equal(t, "0xbbb", above[1].WalletID)
		require.Len(t, below, 1)
		assert.Equal(t, "0xddd", below[0].WalletID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("正常系: 0件指定ならクエリしない", func(t *testing.T) {
		repo, mock := newTestLeaderboardRepository(t)

		above, below, err := repo.Neighbors(context.Background(), leaderboard.CategorySteps, decimal.NewFromInt(5000), "0xabc", 0)
		require.NoError(t, err)
		assert.Empty(t, above)
		assert.Empty(t, below)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func strPtr(s string) *string {
	return &s
}
