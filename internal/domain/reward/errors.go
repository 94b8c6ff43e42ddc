package reward

import "errors"

var (
	// ErrInvalidSteps 歩数が許容範囲外
	ErrInvalidSteps = errors.New("steps out of range")
	// ErrInvalidScore スコアが許容範囲外
	ErrInvalidScore = errors.New("score out of range")
	// ErrInvalidLevel レベルが不正
	ErrInvalidLevel = errors.New("level must be at least 1")
	// ErrInvalidBlocks 破壊ブロック数が不正
	ErrInvalidBlocks = errors.New("blocks destroyed must not be negative")
	// ErrUnknownGame 未定義のゲーム
	ErrUnknownGame = errors.New("unknown game type")
	// ErrGameLocked ティアで解放されていないゲーム
	ErrGameLocked = errors.New("game not unlocked for tier")
	// ErrDailyCapExhausted 本日の獲得上限に到達済み
	ErrDailyCapExhausted = errors.New("daily cap exhausted")
	// ErrInvalidRules 報酬ルール設定が不正
	ErrInvalidRules = errors.New("invalid reward rules")
)
