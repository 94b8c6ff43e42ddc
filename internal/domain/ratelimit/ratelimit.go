package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrRateLimited クールダウン中のリクエスト
var ErrRateLimited = errors.New("rate limited")

// Action レート制限の対象操作
type Action string

const (
	ActionStepClaim  Action = "step_claim"  // 歩数申告
	ActionGameResult Action = "game_result" // ゲーム結果送信
)

// String 文字列表現を返す
func (a Action) String() string {
	return string(a)
}

// Limiter ウォレットと操作ごとのクールダウン管理
type Limiter interface {
	// CheckAndRecord クールダウン外であれば受付時刻を記録して nil を返す
	// クールダウン中であれば状態を変更せず *LimitedError を返す
	CheckAndRecord(ctx context.Context, wallet string, action Action, cooldown time.Duration) error
}

// LimitedError クールダウン中に返されるエラー
type LimitedError struct {
	Action     Action
	RetryAfter time.Duration
}

// Error エラーメッセージを返す
func (e *LimitedError) Error() string {
	return fmt.Sprintf("%s: %s retry after %s", ErrRateLimited, e.Action, e.RetryAfter)
}

// Is errors.Is(err, ErrRateLimited) を満たす
func (e *LimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds Retry-After ヘッダー用の秒数（切り上げ、最小1）
func (e *LimitedError) RetryAfterSeconds() int {
	s := int(math.Ceil(e.RetryAfter.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// Key ストレージ上のキー
func Key(wallet string, action Action) string {
	return "ratelimit:" + action.String() + ":" + wallet
}
