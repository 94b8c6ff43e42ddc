package reward

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces 通貨の小数点以下桁数
const CurrencyPlaces = 2

var difficultyStep = decimal.RequireFromString("0.1")

// Calculator 報酬計算。純粋関数のみで I/O を持たない
type Calculator struct {
	bands []StepBand
	games map[GameType]GameRule
}

// NewCalculator 新しいCalculatorを作成
func NewCalculator(bands []StepBand, games map[GameType]GameRule) (*Calculator, error) {
	sorted := append([]StepBand(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })
	if err := validateBands(sorted); err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, fmt.Errorf("%w: at least one game rule is required", ErrInvalidRules)
	}
	copied := make(map[GameType]GameRule, len(games))
	for g, r := range games {
		if err := validateGameRule(g, r); err != nil {
			return nil, err
		}
		copied[g] = r
	}
	return &Calculator{bands: sorted, games: copied}, nil
}

// MustNewCalculator テスト用ヘルパー: NewCalculatorを呼び出し、エラーが発生した場合はpanicする
func MustNewCalculator(bands []StepBand, games map[GameType]GameRule) *Calculator {
	c, err := NewCalculator(bands, games)
	if err != nil {
		panic(err)
	}
	return c
}

// Rule ゲームのルールを返す
func (c *Calculator) Rule(game GameType) (GameRule, bool) {
	r, ok := c.games[game]
	return r, ok
}

// Games 定義済みゲームの一覧
func (c *Calculator) Games() []string {
	out := make([]string, 0, len(c.games))
	for g := range c.games {
		out = append(out, g.String())
	}
	sort.Strings(out)
	return out
}

// StepReward 歩数に対する通貨報酬
// 区間ごとの線形和に倍率を掛け、小数点以下2桁に丸める
func (c *Calculator) StepReward(steps int64, multiplier decimal.Decimal) decimal.Decimal {
	if steps <= 0 {
		return decimal.Zero
	}

	total := decimal.Zero
	for i, b := range c.bands {
		if steps <= b.From {
			break
		}
		upper := steps
		if i+1 < len(c.bands) && c.bands[i+1].From < upper {
			upper = c.bands[i+1].From
		}
		total = total.Add(decimal.NewFromInt(upper - b.From).Mul(b.Rate))
	}

	return total.Mul(multiplier).Round(CurrencyPlaces)
}

// GameReward ゲーム結果に対する通貨とポイントの報酬
// 未定義のゲームは (0, 0) を返す
func (c *Calculator) GameReward(game GameType, score, level, blocks int64, multiplier decimal.Decimal) (decimal.Decimal, int64) {
	rule, ok := c.games[game]
	if !ok || score < 0 {
		return decimal.Zero, 0
	}
	if level < 1 {
		level = 1
	}
	if blocks < 0 {
		blocks = 0
	}

	s := decimal.NewFromInt(score)
	b := decimal.NewFromInt(blocks)
	factor := DifficultyMultiplier(level).Mul(multiplier)

	currency := decimal.Min(s.Mul(rule.CurrencyPerScore).Add(b.Mul(rule.CurrencyPerBlock)), rule.CurrencyCap)
	points := decimal.Min(s.Mul(rule.PointsPerScore).Add(b.Mul(rule.PointsPerBlock)), rule.PointsCap)

	return currency.Mul(factor).Round(CurrencyPlaces), points.Mul(factor).IntPart()
}

// DifficultyMultiplier レベルによる難易度倍率 1 + (level-1)*0.1
func DifficultyMultiplier(level int64) decimal.Decimal {
	if level < 1 {
		level = 1
	}
	return decimal.NewFromInt(1).Add(decimal.NewFromInt(level - 1).Mul(difficultyStep))
}

// ValidateSteps 歩数申告の範囲チェック
func ValidateSteps(steps int64) error {
	if steps < MinSteps || steps > MaxSteps {
		return fmt.Errorf("%w: steps must be between %d and %d", ErrInvalidSteps, MinSteps, MaxSteps)
	}
	return nil
}

// ValidateGameResult ゲーム結果の妥当性チェック
func (c *Calculator) ValidateGameResult(game GameType, score, level, blocks int64) error {
	rule, ok := c.games[game]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGame, game)
	}
	if score < 0 || score > rule.MaxScore {
		return fmt.Errorf("%w: %s score must be between 0 and %d", ErrInvalidScore, game, rule.MaxScore)
	}
	if level < 1 {
		return ErrInvalidLevel
	}
	if blocks < 0 {
		return ErrInvalidBlocks
	}
	return nil
}
