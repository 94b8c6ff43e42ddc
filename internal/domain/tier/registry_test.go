package tier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfigs() []Config {
	return []Config{
		{
			Name:             NamePlus,
			Multiplier:       decimal.RequireFromString("1.5"),
			DailyPointsCap:   150,
			DailyCurrencyCap: decimal.NewFromInt(600),
			Games:            []string{"zbrickles", "ztrivia", "ztetris", "zslots"},
		},
		{
			Name:             NameStarter,
			Multiplier:       decimal.NewFromInt(1),
			DailyPointsCap:   75,
			DailyCurrencyCap: decimal.NewFromInt(300),
			Games:            []string{"zbrickles", "ztrivia"},
		},
	}
}

func TestNewRegistry(t *testing.T) {
	games := []string{"zbrickles", "ztrivia", "ztetris", "zslots"}

	tests := []struct {
		name      string
		configs   []Config
		wantError error
	}{
		{
			name:    "正常系: デフォルト構成",
			configs: testConfigs(),
		},
		{
			name:      "異常系: ティアが空",
			configs:   nil,
			wantError: ErrInvalidConfig,
		},
		{
			name: "異常系: 倍率がゼロ",
			configs: []Config{
				{Name: NameStarter, Multiplier: decimal.Zero, DailyCurrencyCap: decimal.NewFromInt(1)},
			},
			wantError: ErrInvalidConfig,
		},
		{
			name: "異常系: 上限がマイナス",
			configs: []Config{
				{Name: NameStarter, Multiplier: decimal.NewFromInt(1), DailyPointsCap: -1},
			},
			wantError: ErrInvalidConfig,
		},
		{
			name: "異常系: 未定義ゲームを解放",
			configs: []Config{
				{Name: NameStarter, Multiplier: decimal.NewFromInt(1), Games: []string{"zpong"}},
			},
			wantError: ErrInvalidConfig,
		},
		{
			name:      "異常系: ティア名の重複",
			configs:   append(testConfigs(), testConfigs()[0]),
			wantError: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.configs, games)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := NewRegistry(testConfigs(), nil)
	require.NoError(t, err)

	c, err := r.Lookup(NameStarter)
	require.NoError(t, err)
	assert.Equal(t, int64(75), c.DailyPointsCap)
	assert.True(t, c.Unlocks("zbrickles"))
	assert.False(t, c.Unlocks("ztetris"))

	_, err = r.Lookup(Name("gold"))
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestRegistry_All(t *testing.T) {
	r, err := NewRegistry(testConfigs(), nil)
	require.NoError(t, err)

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, NameStarter, all[0].Name)
	assert.Equal(t, NamePlus, all[1].Name)
}

func TestNewName(t *testing.T) {
	n, err := NewName("  Plus ")
	require.NoError(t, err)
	assert.Equal(t, NamePlus, n)

	_, err = NewName("")
	assert.ErrorIs(t, err, ErrUnknownTier)
}
