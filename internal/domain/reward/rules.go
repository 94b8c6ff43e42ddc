package reward

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MinSteps 1回の申告で受け付ける最小歩数
	MinSteps = 10
	// MaxSteps 1回の申告で受け付ける最大歩数
	MaxSteps = 50000
)

// StepBand 歩数報酬の区間。From歩目以降に Rate を適用する
type StepBand struct {
	From int64
	Rate decimal.Decimal
}

// GameRule ゲームごとの報酬ルール
type GameRule struct {
	MaxScore         int64
	CurrencyPerScore decimal.Decimal
	CurrencyPerBlock decimal.Decimal
	CurrencyCap      decimal.Decimal
	PointsPerScore   decimal.Decimal
	PointsPerBlock   decimal.Decimal
	PointsCap        decimal.Decimal
}

// DefaultStepBands 4区間の歩数報酬
func DefaultStepBands() []StepBand {
	return []StepBand{
		{From: 0, Rate: decimal.RequireFromString("0.01")},
		{From: 1000, Rate: decimal.RequireFromString("0.02")},
		{From: 5000, Rate: decimal.RequireFromString("0.03")},
		{From: 10000, Rate: decimal.RequireFromString("0.05")},
	}
}

// DefaultGameRules ゲーム別の既定ルール
func DefaultGameRules() map[GameType]GameRule {
	d := decimal.RequireFromString
	return map[GameType]GameRule{
		GameBrickles: {
			MaxScore:         5000,
			CurrencyPerScore: d("0.01"),
			CurrencyPerBlock: d("0.05"),
			CurrencyCap:      d("25"),
			PointsPerScore:   d("0.02"),
			PointsPerBlock:   d("0.2"),
			PointsCap:        d("30"),
		},
		GameTrivia: {
			MaxScore:         50,
			CurrencyPerScore: d("0.5"),
			CurrencyCap:      d("20"),
			PointsPerScore:   d("1"),
			PointsCap:        d("25"),
		},
		GameTetris: {
			MaxScore:         10000,
			CurrencyPerScore: d("0.004"),
			CurrencyCap:      d("30"),
			PointsPerScore:   d("0.005"),
			PointsCap:        d("35"),
		},
		GameSlots: {
			MaxScore:         8000,
			CurrencyPerScore: d("0.003"),
			CurrencyCap:      d("20"),
			PointsPerScore:   d("0.004"),
			PointsCap:        d("25"),
		},
	}
}

func validateBands(bands []StepBand) error {
	if len(bands) == 0 {
		return fmt.Errorf("%w: at least one step band is required", ErrInvalidRules)
	}
	if bands[0].From != 0 {
		return fmt.Errorf("%w: first step band must start at 0", ErrInvalidRules)
	}
	for i, b := range bands {
		if b.Rate.IsNegative() {
			return fmt.Errorf("%w: step band %d has negative rate", ErrInvalidRules, i)
		}
		if i > 0 && b.From <= bands[i-1].From {
			return fmt.Errorf("%w: step band thresholds must be strictly increasing", ErrInvalidRules)
		}
	}
	return nil
}

func validateGameRule(game GameType, r GameRule) error {
	if r.MaxScore <= 0 {
		return fmt.Errorf("%w: game %s max score must be positive", ErrInvalidRules, game)
	}
	for _, v := range []decimal.Decimal{
		r.CurrencyPerScore, r.CurrencyPerBlock, r.CurrencyCap,
		r.PointsPerScore, r.PointsPerBlock, r.PointsCap,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: game %s has negative rate or cap", ErrInvalidRules, game)
		}
	}
	return nil
}
