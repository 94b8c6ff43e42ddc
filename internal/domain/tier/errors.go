package tier

import "errors"

var (
	// ErrUnknownTier 未定義のティア
	ErrUnknownTier = errors.New("unknown tier")
	// ErrInvalidConfig ティア設定が不正
	ErrInvalidConfig = errors.New("invalid tier config")
)
