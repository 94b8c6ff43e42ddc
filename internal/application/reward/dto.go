package reward

import (
	"github.com/shopspring/decimal"
)

// ClaimStepsRequest 歩数申告リクエスト
type ClaimStepsRequest struct {
	WalletID string
	Steps    int64
}

// ClaimStepsResponse 歩数申告レスポンス
type ClaimStepsResponse struct {
	WalletID               string
	StepsCounted           int64
	RewardsEarned          decimal.Decimal
	Capped                 bool
	NewBalance             decimal.Decimal
	DailyCurrencyRemaining decimal.Decimal
	EntryID                string
}

// SubmitGameResultRequest ゲーム結果送信リクエスト
type SubmitGameResultRequest struct {
	WalletID        string
	GameType        string
	Score           int64
	Level           int64
	BlocksDestroyed int64
}

// SubmitGameResultResponse ゲーム結果送信レスポンス
type SubmitGameResultResponse struct {
	Game                   string
	CurrencyEarned         decimal.Decimal
	PointsEarned           int64
	CurrencyCapped         bool
	PointsCapped           bool
	DailyCurrencyRemaining decimal.Decimal
	DailyPointsRemaining   int64
	CurrencyBalance        decimal.Decimal
	PointsBalance          int64
	EntryID                string
}

// TierInfo ティア情報
type TierInfo struct {
	Name             string
	Multiplier       decimal.Decimal
	DailyPointsCap   int64
	DailyCurrencyCap decimal.Decimal
	Games            []string
}

// ListTiersResponse ティア一覧レスポンス
type ListTiersResponse struct {
	Tiers []TierInfo
	Games []string // 定義済みの全ゲーム
}
