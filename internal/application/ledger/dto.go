package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDTO 台帳エントリ
type EntryDTO struct {
	EntryID        string
	WalletID       string
	CurrencyAmount decimal.Decimal
	PointsAmount   int64
	Source         string
	Status         string
	Reason         *string
	IsAdjustment   bool
	CreatedAt      time.Time
}

// AdjustRequest 管理者調整リクエスト
type AdjustRequest struct {
	WalletID    string
	Amount      decimal.Decimal // 正の数。通貨は小数2桁まで、ポイントは整数
	Currency    string // "zwap"（既定） or "zpts"
	Reason      string
	IsDeduction bool
}

// AdjustResponse 管理者調整レスポンス
type AdjustResponse struct {
	Entry           EntryDTO
	CurrencyBalance decimal.Decimal
	PointsBalance   int64
}

// ConvertPointsRequest ポイント交換リクエスト
type ConvertPointsRequest struct {
	WalletID string
	Points   int64
}

// ConvertPointsResponse ポイント交換レスポンス
type ConvertPointsResponse struct {
	WalletID         string
	PointsSpent      int64
	CurrencyReceived decimal.Decimal
	Rate             int64 // 1通貨あたりのポイント数
	CurrencyBalance  decimal.Decimal
	PointsBalance    int64
	EntryID          string
}

// HistoryRequest 台帳履歴リクエスト
type HistoryRequest struct {
	WalletID string
	Limit    int
	Offset   int
}

// HistoryResponse 台帳履歴レスポンス
type HistoryResponse struct {
	WalletID string
	Entries  []EntryDTO
	Limit    int
	Offset   int
}

// ReconcileRequest 照合リクエスト
type ReconcileRequest struct {
	WalletID string
}

// ReconcileResponse 台帳合計と残高の照合結果
type ReconcileResponse struct {
	WalletID        string
	Entries         int64
	LedgerCurrency  decimal.Decimal
	BalanceCurrency decimal.Decimal
	CurrencyDrift   decimal.Decimal // 残高 - 台帳合計
	LedgerPoints    int64
	BalancePoints   int64
	PointsDrift     int64
	Consistent      bool
}
