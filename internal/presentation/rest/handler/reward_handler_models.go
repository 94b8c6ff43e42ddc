package handler

// ClaimStepsRequest 歩数申告リクエスト
// @Description 歩数申告リクエスト
type ClaimStepsRequest struct {
	Steps int64 `json:"steps" example:"5000"`
}

// ClaimStepsResponse 歩数申告レスポンス
// @Description 歩数申告レスポンス。金額は小数2桁の文字列
type ClaimStepsResponse struct {
	Wallet                 string `json:"wallet" example:"0xabc0001"`
	StepsCounted           int64  `json:"steps_counted" example:"5000"`
	RewardsEarned          string `json:"rewards_earned" example:"90.00"`
	Capped                 bool   `json:"capped" example:"false"`
	NewBalance             string `json:"new_balance" example:"190.00"`
	DailyCurrencyRemaining string `json:"daily_currency_remaining" example:"210.00"`
	DailyZwapRemaining     string `json:"daily_zwap_remaining" example:"210.00"`
	EntryID                string `json:"entry_id" example:"6f1c7d1e-3f4b-4d8e-9a51-2b7c0e9f4a10"`
}

// GameResultRequest ゲーム結果送信リクエスト
// @Description ゲーム結果送信リクエスト
type GameResultRequest struct {
	GameType        string `json:"game_type" example:"zbrickles"`
	Score           int64  `json:"score" example:"1200"`
	Level           int64  `json:"level" example:"1"`
	BlocksDestroyed int64  `json:"blocks_destroyed" example:"40"`
}

// GameResultResponse ゲーム結果送信レスポンス
// @Description ゲーム結果送信レスポンス
type GameResultResponse struct {
	Game               string `json:"game" example:"zbrickles"`
	ZwapEarned         string `json:"zwap_earned" example:"14.00"`
	ZptsEarned         int64  `json:"zpts_earned" example:"30"`
	ZwapCapped         bool   `json:"zwap_capped" example:"false"`
	ZptsCapped         bool   `json:"zpts_capped" example:"false"`
	DailyZwapRemaining string `json:"daily_zwap_remaining" example:"286.00"`
	DailyZptsRemaining int64  `json:"daily_zpts_remaining" example:"45"`
	ZwapBalance        string `json:"zwap_balance" example:"114.00"`
	ZptsBalance        int64  `json:"zpts_balance" example:"130"`
	EntryID            string `json:"entry_id" example:"6f1c7d1e-3f4b-4d8e-9a51-2b7c0e9f4a10"`
}

// TierItem ティア設定
// @Description ティア設定
type TierItem struct {
	Name          string   `json:"name" example:"starter"`
	Multiplier    string   `json:"multiplier" example:"1.0"`
	DailyZptsCap  int64    `json:"daily_zpts_cap" example:"75"`
	DailyZwapCap  string   `json:"daily_zwap_cap" example:"300.00"`
	UnlockedGames []string `json:"unlocked_games"`
}

// TiersResponse ティア一覧レスポンス
// @Description ティア一覧レスポンス
type TiersResponse struct {
	Tiers []TierItem `json:"tiers"`
	Games []string   `json:"games"`
}
