package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"reward-server/internal/domain/reward"
	"reward-server/internal/domain/tier"
)

//go:embed default_tiers.yaml
var defaultTiersYAML []byte

// RewardTable ティア表と報酬ルールの読み込み結果
type RewardTable struct {
	Registry   *tier.Registry
	Calculator *reward.Calculator
}

type tierFile struct {
	Tiers     []tierEntry              `yaml:"tiers"`
	StepBands []stepBandEntry          `yaml:"step_bands"`
	Games     map[string]gameRuleEntry `yaml:"games"`
}

type tierEntry struct {
	Name             string          `yaml:"name"`
	Multiplier       decimal.Decimal `yaml:"multiplier"`
	DailyPointsCap   int64           `yaml:"daily_points_cap"`
	DailyCurrencyCap decimal.Decimal `yaml:"daily_currency_cap"`
	Games            []string        `yaml:"games"`
}

type stepBandEntry struct {
	From int64           `yaml:"from"`
	Rate decimal.Decimal `yaml:"rate"`
}

type gameRuleEntry struct {
	MaxScore         int64           `yaml:"max_score"`
	CurrencyPerScore decimal.Decimal `yaml:"currency_per_score"`
	CurrencyPerBlock decimal.Decimal `yaml:"currency_per_block"`
	CurrencyCap      decimal.Decimal `yaml:"currency_cap"`
	PointsPerScore   decimal.Decimal `yaml:"points_per_score"`
	PointsPerBlock   decimal.Decimal `yaml:"points_per_block"`
	PointsCap        decimal.Decimal `yaml:"points_cap"`
}

// LoadRewardTable ティア表を読み込む。path が空なら組み込みの既定値を使う
func LoadRewardTable(path string) (*RewardTable, error) {
	data := defaultTiersYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read tier config %s: %w", path, err)
		}
		data = b
	}
	return ParseRewardTable(data)
}

// ParseRewardTable YAMLからティア表を構築
func ParseRewardTable(data []byte) (*RewardTable, error) {
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse tier config: %w", err)
	}

	bands := make([]reward.StepBand, 0, len(f.StepBands))
	for _, b := range f.StepBands {
		bands = append(bands, reward.StepBand{From: b.From, Rate: b.Rate})
	}

	games := make(map[reward.GameType]reward.GameRule, len(f.Games))
	for name, g := range f.Games {
		gt, err := reward.NewGameType(name)
		if err != nil {
			return nil, err
		}
		games[gt] = reward.GameRule{
			MaxScore:         g.MaxScore,
			CurrencyPerScore: g.CurrencyPerScore,
			CurrencyPerBlock: g.CurrencyPerBlock,
			CurrencyCap:      g.CurrencyCap,
			PointsPerScore:   g.PointsPerScore,
			PointsPerBlock:   g.PointsPerBlock,
			PointsCap:        g.PointsCap,
		}
	}

	calc, err := reward.NewCalculator(bands, games)
	if err != nil {
		return nil, err
	}

	tiers := make([]tier.Config, 0, len(f.Tiers))
	for _, t := range f.Tiers {
		name, err := tier.NewName(t.Name)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier.Config{
			Name:             name,
			Multiplier:       t.Multiplier,
			DailyPointsCap:   t.DailyPointsCap,
			DailyCurrencyCap: t.DailyCurrencyCap,
			Games:            t.Games,
		})
	}

	registry, err := tier.NewRegistry(tiers, calc.Games())
	if err != nil {
		return nil, err
	}

	return &RewardTable{Registry: registry, Calculator: calc}, nil
}
