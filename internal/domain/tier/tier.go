package tier

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Name ティア名を表す値オブジェクト
type Name string

const (
	NameStarter Name = "starter" // 無料ティア
	NamePlus    Name = "plus"    // 有料ティア
)

// NewName 新しいNameを作成
func NewName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if n == "" {
		return "", fmt.Errorf("%w: empty", ErrUnknownTier)
	}
	return n, nil
}

// String 文字列表現を返す
func (n Name) String() string {
	return string(n)
}

// Config ティアごとの報酬設定
type Config struct {
	Name             Name
	Multiplier       decimal.Decimal
	DailyPointsCap   int64
	DailyCurrencyCap decimal.Decimal
	Games            []string
}

// Unlocks 指定ゲームがこのティアで解放されているかを返す
func (c Config) Unlocks(game string) bool {
	for _, g := range c.Games {
		if g == game {
			return true
		}
	}
	return false
}

// validate 設定値を検証
func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: tier name is required", ErrInvalidConfig)
	}
	if !c.Multiplier.IsPositive() {
		return fmt.Errorf("%w: tier %s multiplier must be positive", ErrInvalidConfig, c.Name)
	}
	if c.DailyPointsCap < 0 {
		return fmt.Errorf("%w: tier %s daily points cap must not be negative", ErrInvalidConfig, c.Name)
	}
	if c.DailyCurrencyCap.IsNegative() {
		return fmt.Errorf("%w: tier %s daily currency cap must not be negative", ErrInvalidConfig, c.Name)
	}
	return nil
}
