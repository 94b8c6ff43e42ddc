package leaderboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopRequest ランキング取得リクエスト
type TopRequest struct {
	Category string
	Limit    int
}

// EntryDTO ランキングの1行
type EntryDTO struct {
	Rank     int64 // 近傍表示では 0
	Username string
	Wallet   string // 伏せ字
	Value    decimal.Decimal
	Tier     string
}

// TotalsDTO カテゴリ全体の集計
type TotalsDTO struct {
	Users      int64
	TotalValue decimal.Decimal
	MaxValue   decimal.Decimal
}

// TopResponse ランキング取得レスポンス
type TopResponse struct {
	Category    string
	GeneratedAt time.Time
	Totals      TotalsDTO
	Entries     []EntryDTO
}

// RankOfRequest 個人順位リクエスト
type RankOfRequest struct {
	WalletID  string
	Category  string
	Neighbors int
}

// RankDTO 順位と母数
type RankDTO struct {
	Rank     int64
	Total    int64
	IsApprox bool
}

// NeighborsDTO 直上と直下のウォレット
type NeighborsDTO struct {
	Above []EntryDTO
	Below []EntryDTO
}

// RankOfResponse 個人順位レスポンス
type RankOfResponse struct {
	Username  string
	Category  string
	Value     decimal.Decimal
	Global    RankDTO
	Regional  RankDTO
	Local     RankDTO
	Neighbors *NeighborsDTO // 要求がない場合は nil
}
