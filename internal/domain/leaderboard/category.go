package leaderboard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory 未定義のランキングカテゴリ
var ErrUnknownCategory = errors.New("unknown leaderboard category")

// Category ランキングカテゴリ
type Category string

const (
	CategorySteps  Category = "steps"  // 累計歩数
	CategoryGames  Category = "games"  // 累計ゲーム回数
	CategoryEarned Category = "earned" // 累計獲得通貨
	CategoryPoints Category = "points" // 現在のポイント残高
)

// NewCategory 新しいCategoryを作成（"zpts" は points の別名）
func NewCategory(s string) (Category, error) {
	switch c := strings.ToLower(strings.TrimSpace(s)); c {
	case "steps", "games", "earned", "points":
		return Category(c), nil
	case "zpts":
		return CategoryPoints, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCategory, s)
	}
}

// String 文字列表現を返す
func (c Category) String() string {
	return string(c)
}

// Column カテゴリに対応する wallets テーブルのカラム
func (c Category) Column() string {
	switch c {
	case CategorySteps:
		return "steps_total"
	case CategoryGames:
		return "games_played_total"
	case CategoryEarned:
		return "currency_earned_total"
	case CategoryPoints:
		return "points_balance"
	default:
		return ""
	}
}
