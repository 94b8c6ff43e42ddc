package tier

import (
	"fmt"
	"sort"
)

// Registry 起動時に読み込まれる静的なティア表
type Registry struct {
	tiers map[Name]Config
}

// NewRegistry 新しいRegistryを作成
// knownGames が空でない場合、各ティアの解放ゲームがその中に含まれることを検証する
func NewRegistry(configs []Config, knownGames []string) (*Registry, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: at least one tier is required", ErrInvalidConfig)
	}

	known := make(map[string]struct{}, len(knownGames))
	for _, g := range knownGames {
		known[g] = struct{}{}
	}

	tiers := make(map[Name]Config, len(configs))
	for _, c := range configs {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := tiers[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate tier %s", ErrInvalidConfig, c.Name)
		}
		if len(known) > 0 {
			for _, g := range c.Games {
				if _, ok := known[g]; !ok {
					return nil, fmt.Errorf("%w: tier %s unlocks undefined game %s", ErrInvalidConfig, c.Name, g)
				}
			}
		}
		tiers[c.Name] = c
	}

	return &Registry{tiers: tiers}, nil
}

// Lookup ティア設定を取得
func (r *Registry) Lookup(name Name) (Config, error) {
	c, ok := r.tiers[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownTier, name)
	}
	return c, nil
}

// All 全ティアを倍率の昇順で返す
func (r *Registry) All() []Config {
	out := make([]Config, 0, len(r.tiers))
	for _, c := range r.tiers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Multiplier.Equal(out[j].Multiplier) {
			return out[i].Name < out[j].Name
		}
		return out[i].Multiplier.LessThan(out[j].Multiplier)
	})
	return out
}
