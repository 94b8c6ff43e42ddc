package handler

import "time"

// LeaderboardEntry ランキングの1行
// @Description ランキングの1行。近傍表示では rank を省略
type LeaderboardEntry struct {
	Rank     int64   `json:"rank,omitempty" example:"1"`
	Username string  `json:"username" example:"zwapper_4f2a9c1d"`
	Wallet   string  `json:"wallet" example:"0x1111...4444"`
	Value    float64 `json:"value" example:"123456"`
	Tier     string  `json:"tier" example:"plus"`
}

// LeaderboardTotals カテゴリ全体の集計
// @Description カテゴリ全体の集計
type LeaderboardTotals struct {
	Users      int64   `json:"users" example:"200"`
	TotalValue float64 `json:"total_value" example:"5400000"`
	MaxValue   float64 `json:"max_value" example:"123456"`
}

// LeaderboardResponse ランキングレスポンス
// @Description ランキングレスポンス
type LeaderboardResponse struct {
	Category    string             `json:"category" example:"steps"`
	GeneratedAt time.Time          `json:"generated_at"`
	Totals      LeaderboardTotals  `json:"totals"`
	Entries     []LeaderboardEntry `json:"entries"`
}

// RankItem 順位
// @Description 順位と母数。is_approx が true の場合は推定値
type RankItem struct {
	Rank     int64 `json:"rank" example:"42"`
	Total    int64 `json:"total" example:"200"`
	IsApprox bool  `json:"is_approx" example:"false"`
}

// NeighborsItem 直上と直下のウォレット
// @Description 直上と直下のウォレット
type NeighborsItem struct {
	Above []LeaderboardEntry `json:"above"`
	Below []LeaderboardEntry `json:"below"`
}

// UserRankResponse 個人順位レスポンス
// @Description 個人順位レスポンス
type UserRankResponse struct {
	Username  string         `json:"username" example:"zwapper_4f2a9c1d"`
	Category  string         `json:"category" example:"steps"`
	Value     float64        `json:"value" example:"5000"`
	Global    RankItem       `json:"global"`
	Regional  RankItem       `json:"regional"`
	Local     RankItem       `json:"local"`
	Neighbors *NeighborsItem `json:"neighbors,omitempty"`
}
